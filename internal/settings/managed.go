package settings

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const managedHeader = "managed by bootctl; edits are overwritten"

// dialect renders and parses one line per key in a file bootctl fully owns.
type dialect interface {
	comment() string
	render(key, value string) string
	parse(line string) (string, string, bool)
}

// managedFile is a sorted key/value file rewritten on every change. Rendering
// is deterministic, so repeated writes of the same map leave identical bytes.
type managedFile struct {
	path    string
	dialect dialect
	// owner receives the file and any directories write creates.
	owner *Owner
}

func (m managedFile) load() (map[string]string, error) {
	out := map[string]string{}
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if k, v, ok := m.dialect.parse(line); ok {
			out[k] = v
		}
	}
	return out, sc.Err()
}

func (m managedFile) get(key string) (string, bool, error) {
	vals, err := m.load()
	if err != nil {
		return "", false, err
	}
	v, ok := vals[key]
	return v, ok, nil
}

func (m managedFile) set(key, value string) error {
	vals, err := m.load()
	if err != nil {
		return err
	}
	if cur, ok := vals[key]; ok && cur == value {
		return nil
	}
	vals[key] = value
	return m.write(vals)
}

func (m managedFile) render(vals map[string]string) []byte {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\n", m.dialect.comment(), managedHeader)
	for _, k := range keys {
		b.WriteString(m.dialect.render(k, vals[k]))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func (m managedFile) write(vals map[string]string) error {
	created := missingDirs(filepath.Dir(m.path))
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	for _, dir := range created {
		if err := m.owner.give(dir); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(m.path), "."+filepath.Base(m.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(m.render(vals)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return err
	}
	return m.owner.give(m.path)
}

// posixQuote single-quotes s for sh.
func posixQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func posixUnquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], `'\''`, "'"), true
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func psUnquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

// posixLine handles `<verb> KEY='VALUE'` lines.
type posixLine struct {
	verb string
}

func (posixLine) comment() string { return "#" }

func (p posixLine) render(key, value string) string {
	return p.verb + " " + key + "=" + posixQuote(value)
}

func (p posixLine) parse(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, p.verb+" ")
	if !ok {
		return "", "", false
	}
	key, quoted, ok := strings.Cut(rest, "=")
	if !ok {
		return "", "", false
	}
	value, ok := posixUnquote(quoted)
	return key, value, ok
}

// psAlias renders aliases as global functions so they can carry arguments.
type psAlias struct{}

func (psAlias) comment() string { return "#" }

func (psAlias) render(key, value string) string {
	return "function global:" + key + " { Invoke-Expression (" + psQuote(value) + " + ' ' + ($args -join ' ')) }"
}

func (psAlias) parse(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, "function global:")
	if !ok {
		return "", "", false
	}
	key, body, ok := strings.Cut(rest, " { Invoke-Expression (")
	if !ok {
		return "", "", false
	}
	quoted, ok := strings.CutSuffix(body, " + ' ' + ($args -join ' ')) }")
	if !ok {
		return "", "", false
	}
	value, ok := psUnquote(quoted)
	return key, value, ok
}

// psEnv renders `$env:KEY = 'VALUE'` lines.
type psEnv struct{}

func (psEnv) comment() string { return "#" }

func (psEnv) render(key, value string) string {
	return "$env:" + key + " = " + psQuote(value)
}

func (psEnv) parse(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, "$env:")
	if !ok {
		return "", "", false
	}
	key, quoted, ok := strings.Cut(rest, " = ")
	if !ok {
		return "", "", false
	}
	value, ok := psUnquote(quoted)
	return key, value, ok
}
