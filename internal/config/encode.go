package config

import (
	"fmt"

	gotoml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encode renders p in the profile file format. Parse(Encode(p)) yields p.
func Encode(p Profile, format string) ([]byte, error) {
	raw := fileFromProfile(p)
	switch format {
	case "toml":
		return gotoml.Marshal(raw)
	case "yaml":
		return yaml.Marshal(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func fileFromProfile(p Profile) fileProfile {
	applySettings, update, links := p.Startup.ApplySettings, p.Startup.Update, p.Startup.Links
	raw := fileProfile{
		Startup: fileStartup{ApplySettings: &applySettings, Update: &update, Links: &links},
		Updates: fileUpdates{
			Managers:    p.Updates.Managers,
			DotnetTools: p.Updates.DotnetTools,
		},
	}
	if p.Updates.Interval > 0 {
		raw.Updates.Interval = p.Updates.Interval.String()
	}
	for _, t := range p.Tools {
		raw.Tools = append(raw.Tools, fileTool{
			Name:       t.Name,
			Method:     string(t.Method),
			Package:    t.Package,
			Version:    t.Version,
			Args:       t.Args,
			Bin:        t.Bin,
			Check:      t.CheckCommand,
			Privileged: t.Privileged,
		})
	}
	for _, s := range p.Settings {
		raw.Settings = append(raw.Settings, fileSetting{
			Target: string(s.Target),
			Key:    s.Key,
			Value:  s.Value,
			Scope:  string(s.Scope),
		})
	}
	for _, l := range p.Links {
		raw.Links = append(raw.Links, fileLink{Source: l.Source, Target: l.Target, Privileged: l.Privileged})
	}
	return raw
}
