package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

func TestProvider_Interface(t *testing.T) {
	var _ provider.Provider = (*Provider)(nil)
}

func TestNew(t *testing.T) {
	t.Run("creates provider with valid config", func(t *testing.T) {
		config := &Config{
			URL:     "http://webhook.example.com",
			Timeout: 30 * time.Second,
		}

		p, err := New("test", config)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		if p.Name() != "test" {
			t.Errorf("Name() = %q, want %q", p.Name(), "test")
		}
		if p.Type() != "webhook" {
			t.Errorf("Type() = %q, want %q", p.Type(), "webhook")
		}
	})

	t.Run("returns error for nil config", func(t *testing.T) {
		_, err := New("test", nil)
		if err == nil {
			t.Error("New() expected error for nil config")
		}
	})

	t.Run("returns error for invalid config", func(t *testing.T) {
		config := &Config{
			URL: "",
		}

		_, err := New("test", config)
		if err == nil {
			t.Error("New() expected error for invalid config")
		}
	})
}

func TestNewFromMap(t *testing.T) {
	t.Run("creates provider from map", func(t *testing.T) {
		config := map[string]string{
			"URL":         "http://webhook.example.com",
			"TIMEOUT":     "60s",
			"AUTH_HEADER": "X-API-Key",
			"AUTH_TOKEN":  "secret",
			"RETRIES":     "5",
			"RETRY_DELAY": "2s",
		}

		p, err := NewFromMap("test", config)
		if err != nil {
			t.Fatalf("NewFromMap() error = %v", err)
		}

		if p.Name() != "test" {
			t.Errorf("Name() = %q, want %q", p.Name(), "test")
		}
	})

	t.Run("uses defaults for missing optional fields", func(t *testing.T) {
		config := map[string]string{
			"URL": "http://webhook.example.com",
		}

		p, err := NewFromMap("test", config)
		if err != nil {
			t.Fatalf("NewFromMap() error = %v", err)
		}

		if p.Name() != "test" {
			t.Errorf("Name() = %q, want %q", p.Name(), "test")
		}
	})
}

func TestProvider_Capabilities(t *testing.T) {
	p, err := New("test", &Config{URL: "http://webhook.example.com"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	caps := p.Capabilities()
	if caps.Proxyable {
		t.Error("Capabilities().Proxyable = true, want false")
	}

	for _, rt := range []provider.RecordType{
		provider.RecordTypeA,
		provider.RecordTypeAAAA,
		provider.RecordTypeCNAME,
		provider.RecordTypeTXT,
		provider.RecordTypeSRV,
	} {
		if !caps.Supports(rt) {
			t.Errorf("Capabilities().Supports(%s) = false, want true", rt)
		}
	}

	if caps.Supports(provider.RecordTypeMX) {
		t.Error("Capabilities().Supports(MX) = true, want false")
	}
}

func TestProvider_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	config := &Config{
		URL:     server.URL,
		Timeout: 5 * time.Second,
		Retries: 0,
	}

	p, err := New("test", config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Init(context.Background()); err != nil {
		t.Errorf("Init() unexpected error: %v", err)
	}
}

func TestProvider_List(t *testing.T) {
	t.Run("converts webhook records to provider records", func(t *testing.T) {
		webhookRecords := []RecordResponse{
			{Hostname: "app.example.com", Type: "A", Value: "10.0.0.1", TTL: 300, ID: "rec-1"},
			{Hostname: "www.example.com", Type: "CNAME", Value: "app.example.com", TTL: 300, ID: "rec-2"},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/list" {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(webhookRecords)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		config := &Config{
			URL:     server.URL,
			Timeout: 5 * time.Second,
			Retries: 0,
		}

		p, err := New("test", config)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		records, err := p.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}

		if len(records) != 2 {
			t.Fatalf("List() returned %d records, want 2", len(records))
		}

		if records[0].Name != "app.example.com" {
			t.Errorf("records[0].Name = %q, want %q", records[0].Name, "app.example.com")
		}
		if records[0].Type != provider.RecordTypeA {
			t.Errorf("records[0].Type = %q, want %q", records[0].Type, provider.RecordTypeA)
		}
		if records[0].Content != "10.0.0.1" {
			t.Errorf("records[0].Content = %q, want %q", records[0].Content, "10.0.0.1")
		}
		if records[0].ID == "" {
			t.Error("records[0].ID is empty")
		}

		if records[1].Type != provider.RecordTypeCNAME {
			t.Errorf("records[1].Type = %q, want %q", records[1].Type, provider.RecordTypeCNAME)
		}
	})

	t.Run("handles empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]RecordResponse{})
		}))
		defer server.Close()

		config := &Config{
			URL:     server.URL,
			Timeout: 5 * time.Second,
			Retries: 0,
		}

		p, _ := New("test", config)
		records, err := p.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}

		if len(records) != 0 {
			t.Errorf("List() returned %d records, want 0", len(records))
		}
	})

	t.Run("skips unsupported record types", func(t *testing.T) {
		webhookRecords := []RecordResponse{
			{Hostname: "mail.example.com", Type: "MX", Value: "mx.example.com", TTL: 300},
			{Hostname: "app.example.com", Type: "A", Value: "10.0.0.1", TTL: 300},
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(webhookRecords)
		}))
		defer server.Close()

		p, _ := New("test", &Config{URL: server.URL, Retries: 0})
		records, err := p.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}

		if len(records) != 1 {
			t.Fatalf("List() returned %d records, want 1", len(records))
		}
		if records[0].Type != provider.RecordTypeA {
			t.Errorf("records[0].Type = %q, want %q", records[0].Type, provider.RecordTypeA)
		}
	})
}

func TestProvider_Create(t *testing.T) {
	t.Run("creates A record", func(t *testing.T) {
		var received RecordRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/create" && r.Method == http.MethodPost {
				_ = json.NewDecoder(r.Body).Decode(&received)
				w.WriteHeader(http.StatusCreated)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		config := &Config{
			URL:     server.URL,
			Timeout: 5 * time.Second,
			Retries: 0,
		}

		p, _ := New("test", config)
		cfg := provider.RecordConfig{
			Name:    "app.example.com",
			Type:    provider.RecordTypeA,
			Content: "10.0.0.1",
			TTL:     300,
		}

		rec, err := p.Create(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if rec.ID == "" {
			t.Error("Create() returned empty ID")
		}

		if received.Hostname != "app.example.com" {
			t.Errorf("received.Hostname = %q, want %q", received.Hostname, "app.example.com")
		}
		if received.Type != "A" {
			t.Errorf("received.Type = %q, want %q", received.Type, "A")
		}
		if received.Value != "10.0.0.1" {
			t.Errorf("received.Value = %q, want %q", received.Value, "10.0.0.1")
		}
		if received.TTL != 300 {
			t.Errorf("received.TTL = %d, want %d", received.TTL, 300)
		}
	})

	t.Run("creates SRV record", func(t *testing.T) {
		var received RecordRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		p, _ := New("test", &Config{URL: server.URL, Retries: 0})

		priority, weight, port := uint16(10), uint16(20), uint16(5060)
		cfg := provider.RecordConfig{
			Name:     "_sip._tcp.example.com",
			Type:     provider.RecordTypeSRV,
			Content:  "sip.example.com",
			TTL:      300,
			Priority: &priority,
			Weight:   &weight,
			Port:     &port,
		}

		if _, err := p.Create(context.Background(), cfg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if received.SRV == nil {
			t.Fatal("received.SRV is nil")
		}
		if received.SRV.Priority != 10 || received.SRV.Weight != 20 || received.SRV.Port != 5060 {
			t.Errorf("received.SRV = %+v, want priority=10 weight=20 port=5060", received.SRV)
		}
	})

	t.Run("creates CNAME record", func(t *testing.T) {
		var received RecordRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&received)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		config := &Config{
			URL:     server.URL,
			Timeout: 5 * time.Second,
			Retries: 0,
		}

		p, _ := New("test", config)
		cfg := provider.RecordConfig{
			Name:    "www.example.com",
			Type:    provider.RecordTypeCNAME,
			Content: "app.example.com",
			TTL:     300,
		}

		if _, err := p.Create(context.Background(), cfg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if received.Type != "CNAME" {
			t.Errorf("received.Type = %q, want %q", received.Type, "CNAME")
		}
	})
}

func TestProvider_Delete(t *testing.T) {
	t.Run("deletes record", func(t *testing.T) {
		var received DeleteRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/delete" && r.Method == http.MethodDelete {
				_ = json.NewDecoder(r.Body).Decode(&received)
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		config := &Config{
			URL:     server.URL,
			Timeout: 5 * time.Second,
			Retries: 0,
		}

		p, _ := New("test", config)
		cfg := provider.RecordConfig{
			Name:    "app.example.com",
			Type:    provider.RecordTypeA,
			Content: "10.0.0.1",
		}

		if err := p.Delete(context.Background(), encodeID(cfg)); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if received.Hostname != "app.example.com" {
			t.Errorf("received.Hostname = %q, want %q", received.Hostname, "app.example.com")
		}
		if received.Type != "A" {
			t.Errorf("received.Type = %q, want %q", received.Type, "A")
		}
	})

	t.Run("errors on malformed id", func(t *testing.T) {
		p, _ := New("test", &Config{URL: "http://webhook.example.com"})
		if err := p.Delete(context.Background(), "not-an-id"); err == nil {
			t.Error("Delete() expected error for malformed id")
		}
	})
}

func TestProvider_Update(t *testing.T) {
	t.Run("deletes old record and creates new one", func(t *testing.T) {
		var deletes []DeleteRequest
		var creates []RecordRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/delete" && r.Method == http.MethodDelete:
				var d DeleteRequest
				_ = json.NewDecoder(r.Body).Decode(&d)
				deletes = append(deletes, d)
				w.WriteHeader(http.StatusOK)
			case r.URL.Path == "/create" && r.Method == http.MethodPost:
				var c RecordRequest
				_ = json.NewDecoder(r.Body).Decode(&c)
				creates = append(creates, c)
				w.WriteHeader(http.StatusCreated)
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		p, _ := New("test", &Config{URL: server.URL, Retries: 0})

		oldCfg := provider.RecordConfig{Name: "app.example.com", Type: provider.RecordTypeA, Content: "10.0.0.1", TTL: 300}
		newCfg := provider.RecordConfig{Name: "app.example.com", Type: provider.RecordTypeA, Content: "10.0.0.2", TTL: 300}

		rec, err := p.Update(context.Background(), encodeID(oldCfg), newCfg)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		if len(deletes) != 1 || deletes[0].Hostname != "app.example.com" {
			t.Errorf("deletes = %+v, want one delete for app.example.com", deletes)
		}
		if len(creates) != 1 || creates[0].Value != "10.0.0.2" {
			t.Errorf("creates = %+v, want one create with value 10.0.0.2", creates)
		}
		if rec.Content != "10.0.0.2" {
			t.Errorf("rec.Content = %q, want %q", rec.Content, "10.0.0.2")
		}
	})
}

func TestFactory(t *testing.T) {
	t.Run("returns working factory", func(t *testing.T) {
		factory := Factory()

		config := map[string]string{
			"URL": "http://webhook.example.com",
		}

		p, err := factory("test", config)
		if err != nil {
			t.Fatalf("Factory() error = %v", err)
		}

		if p.Name() != "test" {
			t.Errorf("Name() = %q, want %q", p.Name(), "test")
		}
		if p.Type() != "webhook" {
			t.Errorf("Type() = %q, want %q", p.Type(), "webhook")
		}
	})

	t.Run("factory returns error for invalid config", func(t *testing.T) {
		factory := Factory()

		config := map[string]string{
			"URL": "",
		}

		_, err := factory("test", config)
		if err == nil {
			t.Error("Factory() expected error for invalid config")
		}
	})
}

func TestEncodeDecodeID_RoundTrip(t *testing.T) {
	cfg := provider.RecordConfig{
		Name:    "app.example.com",
		Type:    provider.RecordTypeA,
		Content: "10.0.0.1",
	}

	id := encodeID(cfg)
	decoded, err := decodeID(id)
	if err != nil {
		t.Fatalf("decodeID() error = %v", err)
	}

	if decoded.Name != cfg.Name || decoded.Type != cfg.Type || decoded.Content != cfg.Content {
		t.Errorf("decodeID() = %+v, want %+v", decoded, cfg)
	}
}

func TestDecodeID_Malformed(t *testing.T) {
	if _, err := decodeID("no-separators-here"); err == nil {
		t.Error("decodeID() expected error for malformed id")
	}
}

var _ provider.Provider = (*Provider)(nil)
