package nfsmount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountCommand(t *testing.T) {
	tests := []struct {
		goos  string
		extra []string
		want  string
	}{
		{"linux", nil, "port=2049,mountport=2049,vers=3,tcp,local_lock=all,nolock,ro"},
		{"darwin", nil, "port=2049,mountport=2049,vers=3,tcp,locallocks,noresvport,rdonly"},
		{"linux", []string{"soft", "timeo=10"}, "port=2049,mountport=2049,vers=3,tcp,local_lock=all,nolock,ro,soft,timeo=10"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			argv, err := mountCommand(tt.goos, 2049, "/mnt/assets", tt.extra)
			require.NoError(t, err)
			assert.Equal(t, []string{"sudo", "mount", "-t", "nfs", "-o", tt.want, "localhost:/", "/mnt/assets"}, argv)
		})
	}

	_, err := mountCommand("plan9", 2049, "/mnt/assets", nil)
	assert.Error(t, err)
}

func TestUnmountCommands(t *testing.T) {
	assert.Equal(t, [][]string{
		{"diskutil", "unmount", "/mnt/assets"},
		{"sudo", "umount", "/mnt/assets"},
	}, unmountCommands("darwin", "/mnt/assets"))
	assert.Equal(t, [][]string{{"sudo", "umount", "/mnt/assets"}}, unmountCommands("linux", "/mnt/assets"))
}
