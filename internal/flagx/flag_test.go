package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var serverFlags = []string{"-a", "-d", "-s", "-ssh", "-ssh-user", "-log-level"}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "server flags kept, config flag dropped",
			args:    []string{"-c", "server.json", "-a", ":50051", "-ssh", "backup:22"},
			allowed: serverFlags,
			want:    []string{"-a", ":50051", "-ssh", "backup:22"},
		},
		{
			name:    "equals form",
			args:    []string{"-log-level=debug", "-config=server.json"},
			allowed: serverFlags,
			want:    []string{"-log-level=debug"},
		},
		{
			name:    "dsn with equals signs stays whole",
			args:    []string{"-d=postgres://u:p@db/strongholder?sslmode=disable"},
			allowed: serverFlags,
			want:    []string{"-d=postgres://u:p@db/strongholder?sslmode=disable"},
		},
		{
			name:    "keeperctl command and its arguments ignored",
			args:    []string{"-c", "cli.json", "restore", "daily-2024", "out.tar.gz"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "cli.json"},
		},
		{
			name:    "flag without value at the end",
			args:    []string{"-ssh-user"},
			allowed: serverFlags,
			want:    []string{"-ssh-user"},
		},
		{
			name:    "next flag is not taken as a value",
			args:    []string{"-s", "-a", ":9000"},
			allowed: serverFlags,
			want:    []string{"-s", "-a", ":9000"},
		},
		{
			name:    "repeated flag keeps order",
			args:    []string{"-a", ":1", "-a", ":2"},
			allowed: serverFlags,
			want:    []string{"-a", ":1", "-a", ":2"},
		},
		{
			name:    "terminator ends scanning",
			args:    []string{"-c", "cli.json", "content", "--", "-c"},
			allowed: []string{"-c"},
			want:    []string{"-c", "cli.json"},
		},
		{
			name:    "empty",
			args:    []string{},
			allowed: serverFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/strongholder/server.json"}, "/etc/strongholder/server.json"},
		{"long", []string{"-config", "/etc/strongholder/server.json"}, "/etc/strongholder/server.json"},
		{"among server flags", []string{"-a", ":50051", "-config=/cfg.json", "-log-level", "warn"}, "/cfg.json"},
		{"keeperctl command line", []string{"-c", "cli.json", "archives"}, "cli.json"},
		{"last wins", []string{"-c", "/1.json", "-config", "/2.json"}, "/2.json"},
		{"absent", []string{"-a", ":50051", "signin"}, ""},
		{"after terminator", []string{"sendkey", "--", "-c", "x.json"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = append([]string{"testbin"}, tt.args...)
			assert.Equal(t, tt.want, JsonConfigFlags())
		})
	}
}
