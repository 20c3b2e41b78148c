package hostcfg

import "testing"

func TestSetters(t *testing.T) {
	var c Config
	c.SetMAC(0x02, 0x4e, 0x49, 0x47, 0x45, 0x02)
	c.SetIP(192, 168, 1, 102)
	c.SetSubnet(255, 255, 255, 0)
	c.SetRouter(192, 168, 1, 1)
	c.SetUDPDestIP(8, 8, 8, 8)

	wantMAC := [6]byte{0x02, 0x4e, 0x49, 0x47, 0x45, 0x02}
	if c.HostMAC != wantMAC {
		t.Fatalf("HostMAC = %v want %v", c.HostMAC, wantMAC)
	}
	if c.HostIP != [4]byte{192, 168, 1, 102} {
		t.Fatalf("HostIP = %v", c.HostIP)
	}
	if c.SubnetMask != [4]byte{255, 255, 255, 0} {
		t.Fatalf("SubnetMask = %v", c.SubnetMask)
	}
	if c.RouterIP != [4]byte{192, 168, 1, 1} {
		t.Fatalf("RouterIP = %v", c.RouterIP)
	}
	if c.UDPDestIP != [4]byte{8, 8, 8, 8} {
		t.Fatalf("UDPDestIP = %v", c.UDPDestIP)
	}
}

func TestValidateRejectsZeroMAC(t *testing.T) {
	c := Config{
		HostIP:     [4]byte{1, 2, 3, 4},
		SubnetMask: [4]byte{255, 255, 255, 0},
		UDPSrcPort: 5000,
	}
	if err := Validate(&c); err != ErrInvalidHostMAC {
		t.Fatalf("err = %v want %v", err, ErrInvalidHostMAC)
	}
}

func TestParseMAC(t *testing.T) {
	mac, err := parseMAC("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatal(err)
	}
	want := [6]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	if mac != want {
		t.Fatalf("mac = %v want %v", mac, want)
	}
}

func TestParseMACRejectsMalformed(t *testing.T) {
	if _, err := parseMAC("not-a-mac"); err == nil {
		t.Fatal("expected malformed MAC to be rejected")
	}
}

func TestLoadWithoutSourcesReturnsZeroConfig(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.HostMAC != ([6]byte{}) {
		t.Fatal("expected zero-value config without a file or env overrides")
	}
}
