// Command defaults-check validates the built-in component defaults table:
// every default must survive a JSON round trip unchanged (so omitted fields
// are reconstructible from serialized scenes), passthrough fields must not
// carry defaults, and a payload equal to its defaults must compress to an
// empty object.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"scenecore/internal/codec"
	"scenecore/pkg/scene"
)

func main() {
	verbose := flag.Bool("v", false, "print every checked type")
	flag.Parse()

	registry := codec.DefaultRegistry()
	c := codec.New(registry)

	types := registry.Types()
	sort.Strings(types)

	var problems []string
	for _, componentType := range types {
		spec, _ := registry.Spec(componentType)
		problems = append(problems, checkType(c, componentType, spec)...)
		if *verbose {
			fmt.Printf("checked %s (%d defaults, %d passthrough)\n",
				componentType, len(spec.Defaults), len(spec.Passthrough))
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, p)
		}
		fmt.Fprintf(os.Stderr, "defaults-check: %d problem(s)\n", len(problems))
		os.Exit(1)
	}
	fmt.Printf("defaults-check: %d component types OK\n", len(types))
}

func checkType(c *codec.Codec, componentType string, spec codec.TypeSpec) []string {
	var problems []string

	passthrough := make(map[string]struct{}, len(spec.Passthrough))
	for _, f := range spec.Passthrough {
		passthrough[f] = struct{}{}
	}
	for field := range spec.Defaults {
		if _, overlaps := passthrough[field]; overlaps {
			problems = append(problems, fmt.Sprintf(
				"%s.%s: field is both a default and passthrough", componentType, field))
		}
	}

	// Defaults must survive a JSON round trip, otherwise a field omitted at
	// save time restores to a different value at load time.
	raw, err := json.Marshal(spec.Defaults)
	if err != nil {
		return append(problems, fmt.Sprintf("%s: defaults not JSON-encodable: %v", componentType, err))
	}
	var decoded scene.ComponentData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return append(problems, fmt.Sprintf("%s: defaults not JSON-decodable: %v", componentType, err))
	}
	for field, def := range spec.Defaults {
		if !scene.DeepEqual(def, decoded[field]) {
			problems = append(problems, fmt.Sprintf(
				"%s.%s: default does not survive a JSON round trip", componentType, field))
		}
	}

	// A payload equal to its defaults must compress to an empty object, and
	// restoring that object must reproduce the defaults.
	compressed := c.Compress(componentType, scene.CloneMap(spec.Defaults))
	if len(compressed) != 0 {
		problems = append(problems, fmt.Sprintf(
			"%s: default-valued payload compresses to %d field(s), want 0", componentType, len(compressed)))
	}
	restored := c.Restore(componentType, scene.ComponentData{})
	for field, def := range spec.Defaults {
		if !scene.DeepEqual(restored[field], def) {
			problems = append(problems, fmt.Sprintf(
				"%s.%s: restore from empty object diverges from default", componentType, field))
		}
	}
	return problems
}
