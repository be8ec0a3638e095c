package main

import (
	"testing"

	"github.com/actuallystonmai/users-service/internal/config"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		storage string
		want    string
		wantErr bool
	}{
		{"no args serves", nil, config.StorageMemory, cmdServe, false},
		{"explicit serve", []string{"serve"}, config.StorageMemory, cmdServe, false},
		{"migrate-down on postgres", []string{"migrate-down"}, config.StoragePostgres, cmdMigrateDown, false},
		{"migrate-down on memory", []string{"migrate-down"}, config.StorageMemory, "", true},
		{"unknown command", []string{"migrate-up"}, config.StoragePostgres, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.args, tt.storage)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got command %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
