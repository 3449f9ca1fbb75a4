package wallet

import (
	"encoding/json"
	"fmt"
	"os"
)

// CardIdentifier is the pass type identifier of the sample passes.
const CardIdentifier = "pass.haus.logica.exponfctest"

// PassIdentity is one sample pass offered by the wallet screen.
type PassIdentity struct {
	Label              string `json:"label"`
	PassTypeIdentifier string `json:"passTypeIdentifier"`
	SerialNumber       string `json:"serialNumber"`
	URL                string `json:"url"`
}

// DefaultPasses returns the two sample passes.
func DefaultPasses() []PassIdentity {
	return []PassIdentity{
		{
			Label:              "Pass 1",
			PassTypeIdentifier: CardIdentifier,
			SerialNumber:       "serial201",
			URL:                "https://www.logica.haus/test/TestPass.pkpass",
		},
		{
			Label:              "Pass 2",
			PassTypeIdentifier: CardIdentifier,
			SerialNumber:       "serial202",
			URL:                "https://www.logica.haus/test/FinalTestPass2.pkpass",
		},
	}
}

// LoadPasses reads a JSON array of PassIdentity from path. Entries without a
// type identifier get CardIdentifier.
func LoadPasses(path string) ([]PassIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read passes file: %w", err)
	}

	var passes []PassIdentity
	if err := json.Unmarshal(data, &passes); err != nil {
		return nil, fmt.Errorf("parse passes file %s: %w", path, err)
	}
	if len(passes) == 0 {
		return nil, fmt.Errorf("passes file %s lists no passes", path)
	}

	seen := make(map[string]bool)
	for i := range passes {
		p := &passes[i]
		if p.Label == "" || p.SerialNumber == "" || p.URL == "" {
			return nil, fmt.Errorf("pass %d: label, serialNumber and url are required", i)
		}
		if seen[p.Label] {
			return nil, fmt.Errorf("pass %d: duplicate label %q", i, p.Label)
		}
		seen[p.Label] = true
		if p.PassTypeIdentifier == "" {
			p.PassTypeIdentifier = CardIdentifier
		}
	}
	return passes, nil
}
