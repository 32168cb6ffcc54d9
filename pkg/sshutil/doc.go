// Package sshutil provides shared SSH/SFTP client utilities for dnscontroller providers.
//
// This package provides a unified way to manage remote file systems and execute
// commands via SSH, enabling providers like dnsmasq, Pi-hole, and hosts-file to
// manage DNS configurations on remote systems.
//
// # Overview
//
// The package provides three main components:
//
//   - [Client]: Manages a single SSH connection with keepalive
//   - [SFTPFileSystem]: Implements [FileSystem] interface over SFTP
//   - [SSHCommandRunner]: Implements [CommandRunner] interface over SSH exec
//
// # Basic Usage
//
//	// Configure SSH connection
//	config := &sshutil.Config{
//		Host:    "dns-server.local",
//		Port:    22,
//		User:    "admin",
//		KeyFile: "/path/to/key",
//	}
//
//	// Create client
//	client, err := sshutil.NewClient(config)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	// Connect
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//
//	// Use SFTP filesystem
//	fs := sshutil.NewSFTPFileSystem(client)
//	if err := fs.Connect(ctx); err != nil {
//		return err
//	}
//	defer fs.Close()
//
//	data, err := fs.ReadFile("/etc/dnsmasq.d/custom.conf")
//
//	// Use command runner
//	runner := sshutil.NewSSHCommandRunner(client)
//	if err := runner.Run(ctx, "systemctl reload dnsmasq"); err != nil {
//		return err
//	}
//
// # Configuration from a Resolved Map
//
// providers/dnsmasq owns reading `_FILE`-suffixed secrets and environment
// variables (via internal/config); this package only ever sees the resolved
// values, via LoadConfigFromMap:
//
//	config, err := sshutil.LoadConfigFromMap(map[string]string{
//		"HOST":     "dns-server.local",
//		"USER":     "admin",
//		"KEY_FILE": "/run/secrets/dnsmasq_ssh_key",
//	})
//
// # Interface Compatibility
//
// The [FileSystem] and [CommandRunner] interfaces are designed to match the
// interfaces defined in providers/dnsmasq/client.go, allowing existing providers
// to easily adopt SSH-based remote management:
//
//	// FileSystem can be used anywhere os file operations are needed
//	type FileSystem interface {
//		ReadFile(path string) ([]byte, error)
//		WriteFile(path string, data []byte, perm os.FileMode) error
//		Stat(path string) (os.FileInfo, error)
//		MkdirAll(path string, perm os.FileMode) error
//	}
//
//	// CommandRunner can be used for reload commands
//	type CommandRunner interface {
//		Run(ctx context.Context, command string) error
//	}
//
// # Security Considerations
//
// By default, the package disables strict host key checking for ease of use
// in internal networks, and host keys are not verified. Verification against
// a known_hosts file is not implemented: with StrictHostKeyChecking set to
// true, building the host key callback fails whatever HostKeyCallback holds,
// so Connect returns an error.
//
// SSH key-based authentication is strongly recommended over password authentication.
// When using Docker secrets, store keys in mounted secret files rather than
// environment variables.
package sshutil
