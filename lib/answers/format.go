/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package answers

import (
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/atomicapp/atomicapp/lib/constants"

	"github.com/gravitational/trace"
	"gopkg.in/ini.v1"
	"sigs.k8s.io/yaml"
)

// Format names one of the four answer-file serializations the store must
// round-trip through.
type Format string

const (
	FormatINI  Format = "ini"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// DetectFormat infers a Format from path's extension, falling back to the
// sample format when the extension is not recognized.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".xml":
		return FormatXML
	case ".ini", ".conf":
		return FormatINI
	default:
		return Format(constants.AnswersSampleFormat)
	}
}

// LoadFromFile parses path in format (or the format DetectFormat infers
// from path when format is empty) and replaces the store's contents.
// A missing file is reported as AnswersNotFound (trace.NotFound).
func (s *Store) LoadFromFile(path string, format Format) error {
	if format == "" {
		format = DetectFormat(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return trace.NotFound("answer file %v not found", path)
		}
		return trace.ConvertSystemError(err)
	}
	groups, err := decode(data, format)
	if err != nil {
		return trace.BadParameter("answer file %v: %v", path, err)
	}
	s.loadGroups(groups)
	return nil
}

// WriteFile serializes the store's Snapshot in format and writes it
// atomically (write-temp + rename) to path, per §5's atomic-write guarantee.
func (s *Store) WriteFile(path string, format Format) error {
	data, err := encode(s.Snapshot(), format)
	if err != nil {
		return trace.Wrap(err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return trace.ConvertSystemError(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return trace.ConvertSystemError(err)
	}
	return nil
}

func decode(data []byte, format Format) (map[string]map[string]string, error) {
	switch format {
	case FormatJSON:
		var m map[string]map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, trace.Wrap(err)
		}
		return m, nil
	case FormatYAML:
		var m map[string]map[string]string
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, trace.Wrap(err)
		}
		return m, nil
	case FormatXML:
		return decodeXML(data)
	case FormatINI:
		return decodeINI(data)
	default:
		return nil, trace.BadParameter("unsupported answers format %q", format)
	}
}

func encode(groups []Group, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		m := make(map[string]map[string]string, len(groups))
		for _, g := range groups {
			m[g.Name] = kvMap(g.Values)
		}
		return json.MarshalIndent(m, "", "  ")
	case FormatYAML:
		m := make(map[string]map[string]string, len(groups))
		for _, g := range groups {
			m[g.Name] = kvMap(g.Values)
		}
		return yaml.Marshal(m)
	case FormatXML:
		return encodeXML(groups)
	case FormatINI:
		return encodeINI(groups)
	default:
		return nil, trace.BadParameter("unsupported answers format %q", format)
	}
}

func kvMap(values []KeyValue) map[string]string {
	m := make(map[string]string, len(values))
	for _, kv := range values {
		m[kv.Key] = kv.Value
	}
	return m
}

// xmlDoc is the wire shape for the XML answer file format, since
// encoding/xml has no native support for an arbitrary group/key/value map.
type xmlDoc struct {
	XMLName xml.Name   `xml:"answers"`
	Groups  []xmlGroup `xml:"group"`
}

type xmlGroup struct {
	Name    string     `xml:"name,attr"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func decodeXML(data []byte) (map[string]map[string]string, error) {
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, trace.Wrap(err)
	}
	out := make(map[string]map[string]string, len(doc.Groups))
	for _, g := range doc.Groups {
		kv := make(map[string]string, len(g.Entries))
		for _, e := range g.Entries {
			kv[e.Key] = e.Value
		}
		out[g.Name] = kv
	}
	return out, nil
}

func encodeXML(groups []Group) ([]byte, error) {
	doc := xmlDoc{Groups: make([]xmlGroup, 0, len(groups))}
	for _, g := range groups {
		xg := xmlGroup{Name: g.Name, Entries: make([]xmlEntry, 0, len(g.Values))}
		for _, kv := range g.Values {
			xg.Entries = append(xg.Entries, xmlEntry{Key: kv.Key, Value: kv.Value})
		}
		doc.Groups = append(doc.Groups, xg)
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return append([]byte(xml.Header), out...), nil
}

func decodeINI(data []byte) (map[string]map[string]string, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	out := make(map[string]map[string]string)
	for _, section := range f.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			name = constants.GeneralNamespace
		}
		kv := make(map[string]string, len(section.Keys()))
		for _, key := range section.Keys() {
			kv[key.Name()] = key.Value()
		}
		if len(kv) > 0 {
			out[name] = kv
		}
	}
	return out, nil
}

func encodeINI(groups []Group) ([]byte, error) {
	f := ini.Empty()
	for _, g := range groups {
		sectionName := g.Name
		if sectionName == constants.GeneralNamespace {
			sectionName = ini.DefaultSection
		}
		section, err := f.NewSection(sectionName)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		for _, kv := range g.Values {
			if _, err := section.NewKey(kv.Key, kv.Value); err != nil {
				return nil, trace.Wrap(err)
			}
		}
	}
	var buf strings.Builder
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, trace.Wrap(err)
	}
	return []byte(buf.String()), nil
}
