package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/danmuck/bootctl/internal/host"
)

// Owner is the unprivileged user that user-scope files belong to when they
// are written by a sudo child running as root.
type Owner struct {
	UID int
	GID int
	// Chown defaults to os.Lchown.
	Chown func(path string, uid, gid int) error
}

// InvokingOwner returns the sudo caller when ctx runs as root under sudo, and
// nil otherwise.
func InvokingOwner(ctx host.ProcessContext) *Owner {
	if ctx.Windows() || ctx.Identity == nil || !ctx.Identity.Elevated() {
		return nil
	}
	uid, err := strconv.Atoi(ctx.Env.Get("SUDO_UID"))
	if err != nil || uid == 0 {
		return nil
	}
	gid, err := strconv.Atoi(ctx.Env.Get("SUDO_GID"))
	if err != nil {
		return nil
	}
	return &Owner{UID: uid, GID: gid}
}

func (o *Owner) give(path string) error {
	if o == nil {
		return nil
	}
	chown := o.Chown
	if chown == nil {
		chown = os.Lchown
	}
	if err := chown(path, o.UID, o.GID); err != nil {
		return fmt.Errorf("chown %s to %d:%d: %w", path, o.UID, o.GID, err)
	}
	return nil
}

// missingDirs lists the ancestors of dir that do not exist yet, outermost first.
func missingDirs(dir string) []string {
	var out []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); !errors.Is(err, os.ErrNotExist) {
			break
		}
		out = append([]string{d}, out...)
		if filepath.Dir(d) == d {
			break
		}
	}
	return out
}
