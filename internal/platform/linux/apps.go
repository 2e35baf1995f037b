//go:build linux

package linux

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/shirou/gopsutil/v4/process"
	"gopkg.in/ini.v1"

	"github.com/stigoleg/caffeine/internal/policy"
	"github.com/stigoleg/caffeine/internal/schedule"
)

const (
	processPollInterval = 2 * time.Second
	installedDebounce   = time.Second
	// commLen is the kernel's limit on a process name.
	commLen = 15
)

// DesktopEntry is the part of a .desktop file needed to recognise a running
// application.
type DesktopEntry struct {
	ID       string
	Name     string
	Exec     string
	TryExec  string
	WMClass  string
	Filename string
}

// ParseDesktopEntry reads the [Desktop Entry] group of the file at path.
func ParseDesktopEntry(id, path string) (DesktopEntry, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return DesktopEntry{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	sec, err := f.GetSection("Desktop Entry")
	if err != nil {
		return DesktopEntry{}, fmt.Errorf("%s: %w", path, err)
	}
	return DesktopEntry{
		ID:       id,
		Name:     sec.Key("Name").String(),
		Exec:     sec.Key("Exec").String(),
		TryExec:  sec.Key("TryExec").String(),
		WMClass:  sec.Key("StartupWMClass").String(),
		Filename: path,
	}, nil
}

// ProcessNames returns the lowercase names a process of this application may
// run under.
func (e DesktopEntry) ProcessNames() []string {
	var names []string
	add := func(s string) {
		s = strings.ToLower(filepath.Base(strings.Trim(s, `"'`)))
		if s == "" || s == "." || s == "/" {
			return
		}
		for _, n := range names {
			if n == s {
				return
			}
		}
		names = append(names, s)
	}
	add(execProgram(e.Exec))
	add(e.TryExec)
	add(e.WMClass)
	return names
}

// execProgram extracts the program from an Exec line, skipping an env
// prefix and its assignments.
func execProgram(exec string) string {
	fields := strings.Fields(exec)
	i := 0
	if i < len(fields) && filepath.Base(fields[i]) == "env" {
		i++
		for i < len(fields) && strings.Contains(fields[i], "=") {
			i++
		}
	}
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}

// AppRegistry resolves desktop IDs and tracks whether their processes run.
// Lookup and the watch callbacks belong to the owner's loop; Run polls the
// process table in the background.
type AppRegistry struct {
	post     schedule.Poster
	dirs     []string
	interval time.Duration
	scan     func(ctx context.Context) (map[string]bool, error)

	apps        map[string]*desktopApp
	running     map[string]bool
	scanned     bool
	scannedAt   time.Time
	onInstalled func()
	watching    atomic.Int32
}

// NewAppRegistry creates a registry searching the XDG application
// directories.
func NewAppRegistry(post schedule.Poster) *AppRegistry {
	dirs := []string{filepath.Join(xdg.DataHome, "applications")}
	for _, d := range xdg.DataDirs {
		dirs = append(dirs, filepath.Join(d, "applications"))
	}
	return &AppRegistry{
		post:     post,
		dirs:     dirs,
		interval: processPollInterval,
		scan:     scanProcesses,
		apps:     make(map[string]*desktopApp),
	}
}

// OnInstalledChanged sets fn to run on the loop when desktop entries are
// added or removed.
func (r *AppRegistry) OnInstalledChanged(fn func()) { r.onInstalled = fn }

// Lookup resolves id. An application whose desktop file disappeared is
// forgotten. Polling pauses while nothing is watched, so a lookup then
// rescans the process table first.
func (r *AppRegistry) Lookup(id string) (policy.App, bool) {
	path, ok := r.find(id)
	if !ok {
		delete(r.apps, id)
		return nil, false
	}
	if r.stale() {
		r.refresh(context.Background())
	}
	if app, ok := r.apps[id]; ok && app.entry.Filename == path {
		return app, true
	}

	entry, err := ParseDesktopEntry(id, path)
	if err != nil {
		log.Printf("apps: %v", err)
		return nil, false
	}
	app := &desktopApp{reg: r, entry: entry, names: entry.ProcessNames(), watchers: make(map[int]func(bool))}
	app.running = r.matches(app.names)
	r.apps[id] = app
	return app, true
}

// Entries lists every desktop ID found in the application directories.
func (r *AppRegistry) Entries() []DesktopEntry {
	seen := make(map[string]bool)
	var out []DesktopEntry
	for _, dir := range r.dirs {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.desktop"))
		for _, path := range matches {
			id := filepath.Base(path)
			if seen[id] {
				continue
			}
			seen[id] = true
			if e, err := ParseDesktopEntry(id, path); err == nil {
				out = append(out, e)
			}
		}
	}
	return out
}

// Run polls the process table and watches the application directories until
// ctx is done.
func (r *AppRegistry) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create application watcher: %w", err)
	}
	defer w.Close()
	for _, dir := range r.dirs {
		if err := w.Add(dir); err == nil {
			log.Printf("apps: watching %s", dir)
		}
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	var debounce *time.Timer
	installed := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r.watching.Load() == 0 {
				continue
			}
			names, err := r.scan(ctx)
			if err != nil {
				log.Printf("apps: process scan failed: %v", err)
				continue
			}
			r.post.Post(func() { r.apply(names) })
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".desktop") {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(installedDebounce, func() {
				select {
				case installed <- struct{}{}:
				default:
				}
			})
		case <-installed:
			r.post.Post(func() {
				if r.onInstalled != nil {
					r.onInstalled()
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("apps: watcher error: %v", err)
		}
	}
}

func (r *AppRegistry) find(id string) (string, bool) {
	if id == "" || strings.ContainsRune(id, os.PathSeparator) {
		return "", false
	}
	for _, dir := range r.dirs {
		path := filepath.Join(dir, id)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (r *AppRegistry) stale() bool {
	if !r.scanned {
		return true
	}
	return r.watching.Load() == 0 && time.Since(r.scannedAt) >= r.interval
}

func (r *AppRegistry) refresh(ctx context.Context) {
	names, err := r.scan(ctx)
	if err != nil {
		log.Printf("apps: process scan failed: %v", err)
		return
	}
	r.apply(names)
}

func (r *AppRegistry) apply(names map[string]bool) {
	r.running = names
	r.scanned = true
	r.scannedAt = time.Now()
	for _, app := range r.apps {
		app.update(r.matches(app.names))
	}
}

func (r *AppRegistry) matches(names []string) bool {
	for _, n := range names {
		if r.running[n] {
			return true
		}
		if len(n) > commLen && r.running[n[:commLen]] {
			return true
		}
	}
	return false
}

type desktopApp struct {
	reg      *AppRegistry
	entry    DesktopEntry
	names    []string
	running  bool
	watchers map[int]func(bool)
	next     int
}

func (a *desktopApp) ID() string { return a.entry.ID }

func (a *desktopApp) Running() bool { return a.running }

func (a *desktopApp) Watch(fn func(bool)) func() {
	a.next++
	id := a.next
	a.watchers[id] = fn
	a.reg.watching.Add(1)
	return func() {
		if _, ok := a.watchers[id]; ok {
			delete(a.watchers, id)
			a.reg.watching.Add(-1)
		}
	}
}

func (a *desktopApp) update(running bool) {
	if running == a.running {
		return
	}
	a.running = running
	log.Printf("apps: %s running=%t", a.entry.ID, running)
	fns := make([]func(bool), 0, len(a.watchers))
	for _, fn := range a.watchers {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(running)
	}
}

func scanProcesses(ctx context.Context) (map[string]bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(procs)*2)
	add := func(s string) {
		if s != "" {
			names[strings.ToLower(filepath.Base(s))] = true
		}
	}
	for _, p := range procs {
		if name, err := p.NameWithContext(ctx); err == nil {
			add(name)
		}
		if exe, err := p.ExeWithContext(ctx); err == nil {
			add(exe)
		}
		if args, err := p.CmdlineSliceWithContext(ctx); err == nil && len(args) > 0 {
			add(args[0])
		}
	}
	return names, nil
}
