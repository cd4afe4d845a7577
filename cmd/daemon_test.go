package cmd

import (
	"testing"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/config"
)

func TestDaemonListenAddr(t *testing.T) {
	cases := []struct {
		name       string
		flagAddr   string
		flagSet    bool
		configured string
		want       string
	}{
		{"flag default, nothing configured", "127.0.0.1:8787", false, "", "127.0.0.1:8787"},
		{"configured address overrides default", "127.0.0.1:8787", false, "127.0.0.1:9000", "127.0.0.1:9000"},
		{"explicit flag wins over config", "127.0.0.1:7070", true, "127.0.0.1:9000", "127.0.0.1:7070"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Daemon.ListenAddr = tc.configured

			got := daemonListenAddr(tc.flagAddr, tc.flagSet, cfg)
			if got != tc.want {
				t.Fatalf("daemonListenAddr() = %q, want %q", got, tc.want)
			}
		})
	}
}
