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

package render

import (
	"encoding/json"

	"github.com/go-openapi/jsonpointer"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

// injectPointers parses data as JSON/YAML and, for every (paramName,
// pointers) pair, sets each pointer's target to "$"+paramName so the
// subsequent envsubst pass can replace it with the param's resolved value.
// If data does not parse as structured data the step is skipped with a
// note, per §4.3.
func injectPointers(data []byte, params map[string][]string) ([]byte, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		log.Debugf("artifact is not structured data, skipping pointer injection: %v", err)
		return data, nil
	}
	var doc interface{}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		log.Debugf("artifact is not structured data, skipping pointer injection: %v", err)
		return data, nil
	}

	for paramName, pointers := range params {
		for _, p := range pointers {
			ptr, err := jsonpointer.New(p)
			if err != nil {
				return nil, trace.BadParameter("invalid json pointer %q: %v", p, err)
			}
			newDoc, err := ptr.Set(doc, "$"+paramName)
			if err != nil {
				return nil, trace.BadParameter("json pointer %q has no target: %v", p, err)
			}
			doc = newDoc
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return out, nil
}
