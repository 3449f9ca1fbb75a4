package wallet

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// PassInfo is the subset of pass.json the local wallet keeps.
type PassInfo struct {
	FormatVersion      int    `json:"formatVersion"`
	PassTypeIdentifier string `json:"passTypeIdentifier"`
	SerialNumber       string `json:"serialNumber"`
	TeamIdentifier     string `json:"teamIdentifier,omitempty"`
	OrganizationName   string `json:"organizationName,omitempty"`
	Description        string `json:"description,omitempty"`
}

// ErrInvalidPass is returned for pass files that are not usable.
var ErrInvalidPass = errors.New("invalid pass file")

// maxPassJSON bounds how much of pass.json is decoded.
const maxPassJSON = 1 << 20

// ReadPKPass opens a .pkpass archive and decodes its pass.json.
func ReadPKPass(r io.ReaderAt, size int64) (*PassInfo, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}

	f, err := zr.Open("pass.json")
	if err != nil {
		return nil, fmt.Errorf("%w: pass.json missing", ErrInvalidPass)
	}
	defer f.Close()

	var info PassInfo
	if err := json.NewDecoder(io.LimitReader(f, maxPassJSON)).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: pass.json: %v", ErrInvalidPass, err)
	}
	if info.PassTypeIdentifier == "" || info.SerialNumber == "" {
		return nil, fmt.Errorf("%w: pass.json lacks passTypeIdentifier or serialNumber", ErrInvalidPass)
	}
	return &info, nil
}
