package provider

import "testing"

func u16(v uint16) *uint16 { return &v }
func b(v bool) *bool       { return &v }

func TestEqual(t *testing.T) {
	proxyable := Capabilities{Proxyable: true}
	plain := Capabilities{}

	tests := []struct {
		name     string
		current  Record
		desired  RecordConfig
		caps     Capabilities
		expected bool
	}{
		{
			name: "identical A records",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300,
			}},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300},
			expected: true,
		},
		{
			name: "different names",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app1.example.com", Content: "10.0.0.1", TTL: 300,
			}},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app2.example.com", Content: "10.0.0.1", TTL: 300},
			expected: false,
		},
		{
			name: "different types",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300,
			}},
			desired:  RecordConfig{Type: RecordTypeAAAA, Name: "app.example.com", Content: "::1", TTL: 300},
			expected: false,
		},
		{
			name: "different TTL",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300,
			}},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 600},
			expected: false,
		},
		{
			name: "TTLAuto on either side is equal to any TTL",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: TTLAuto,
			}},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 600},
			expected: true,
		},
		{
			name: "CNAME compared after trailing-dot normalization",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeCNAME, Name: "app.example.com", Content: "target.example.com.", TTL: 300,
			}},
			desired:  RecordConfig{Type: RecordTypeCNAME, Name: "app.example.com", Content: "target.example.com", TTL: 300},
			expected: true,
		},
		{
			name: "identical SRV records",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeSRV, Name: "_minecraft._tcp.example.com", Content: "mc.example.com", TTL: 3600,
				Priority: u16(10), Weight: u16(5), Port: u16(25565),
			}},
			desired: RecordConfig{
				Type: RecordTypeSRV, Name: "_minecraft._tcp.example.com", Content: "mc.example.com", TTL: 3600,
				Priority: u16(10), Weight: u16(5), Port: u16(25565),
			},
			expected: true,
		},
		{
			name: "SRV records with different port",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeSRV, Name: "_minecraft._tcp.example.com", Content: "mc.example.com", TTL: 3600,
				Priority: u16(10), Weight: u16(5), Port: u16(25565),
			}},
			desired: RecordConfig{
				Type: RecordTypeSRV, Name: "_minecraft._tcp.example.com", Content: "mc.example.com", TTL: 3600,
				Priority: u16(10), Weight: u16(5), Port: u16(25566),
			},
			expected: false,
		},
		{
			name: "MX priority differs",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeMX, Name: "example.com", Content: "mail.example.com", TTL: 300, Priority: u16(10),
			}},
			desired:  RecordConfig{Type: RecordTypeMX, Name: "example.com", Content: "mail.example.com", TTL: 300, Priority: u16(20)},
			expected: false,
		},
		{
			name: "proxied ignored for non-proxyable capabilities",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300, Proxied: b(true),
			}},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300, Proxied: b(false)},
			caps:     plain,
			expected: true,
		},
		{
			name: "proxied compared for proxy-capable providers",
			current: Record{RecordConfig: RecordConfig{
				Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300, Proxied: b(true),
			}},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300, Proxied: b(false)},
			caps:     proxyable,
			expected: false,
		},
		{
			name: "provider ID never affects equality",
			current: Record{
				RecordConfig: RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300},
				ID:           "record-123",
			},
			desired:  RecordConfig{Type: RecordTypeA, Name: "app.example.com", Content: "10.0.0.1", TTL: 300},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.current, tt.desired, tt.caps); got != tt.expected {
				t.Errorf("Equal() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRecordTypeConstants(t *testing.T) {
	for _, tt := range []struct {
		got  RecordType
		want string
	}{
		{RecordTypeA, "A"},
		{RecordTypeAAAA, "AAAA"},
		{RecordTypeCNAME, "CNAME"},
		{RecordTypeTXT, "TXT"},
		{RecordTypeMX, "MX"},
		{RecordTypeSRV, "SRV"},
		{RecordTypeCAA, "CAA"},
		{RecordTypeNS, "NS"},
		{RecordTypePTR, "PTR"},
	} {
		if string(tt.got) != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RecordConfig
		wantErr bool
	}{
		{"valid A", RecordConfig{Type: RecordTypeA, Name: "a.example.com", Content: "10.0.0.1", TTL: 300}, false},
		{"A with IPv6 content", RecordConfig{Type: RecordTypeA, Name: "a.example.com", Content: "::1", TTL: 300}, true},
		{"valid AAAA", RecordConfig{Type: RecordTypeAAAA, Name: "a.example.com", Content: "::1", TTL: 300}, false},
		{"valid CNAME", RecordConfig{Type: RecordTypeCNAME, Name: "a.example.com", Content: "b.example.com", TTL: 300}, false},
		{"ttl below floor", RecordConfig{Type: RecordTypeA, Name: "a.example.com", Content: "10.0.0.1", TTL: 10}, true},
		{"ttl auto sentinel allowed", RecordConfig{Type: RecordTypeA, Name: "a.example.com", Content: "10.0.0.1", TTL: TTLAuto}, false},
		{"missing name", RecordConfig{Type: RecordTypeA, Content: "10.0.0.1", TTL: 300}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
