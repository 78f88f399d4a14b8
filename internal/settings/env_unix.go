//go:build !windows

package settings

import "github.com/danmuck/bootctl/internal/host"

func DefaultEnvStore(ctx host.ProcessContext) EnvStore {
	return FileEnv{Paths: DefaultPaths(ctx), Owner: InvokingOwner(ctx)}
}
