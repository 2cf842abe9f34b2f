// Package sound locates the audio asset the alarm action announces.
// The core never plays audio itself; observers receive the resolved path
// with the alarm-triggered notification and own playback.
package sound

import (
	"os"
	"path/filepath"

	logx "clocked/pkg/logx"
)

const defaultAsset = "alarm-1.mp3"

// Resolver resolves the alarm sound path, preferring an explicit override
// and otherwise probing the usual install locations.
type Resolver struct {
	log      logx.Logger
	override string
}

func NewResolver(log logx.Logger, override string) *Resolver {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Resolver{log: log, override: override}
}

// AlarmPath returns the best candidate path. The file is not required to
// exist; when every probe misses, the first candidate is returned so the
// observer can surface a meaningful playback error.
func (r *Resolver) AlarmPath() string {
	candidates := r.candidates()
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	r.log.Warn("alarm sound not found; using first candidate", logx.String("path", candidates[0]))
	return candidates[0]
}

func (r *Resolver) candidates() []string {
	if r.override != "" {
		return []string{r.override}
	}

	var out []string
	if wd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(wd, "assets", defaultAsset))
	}
	// Next to the installed binary.
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), "assets", defaultAsset))
	}
	out = append(out, filepath.Join("/usr/share/clocked", defaultAsset))
	if len(out) == 0 {
		out = []string{defaultAsset}
	}
	return out
}
