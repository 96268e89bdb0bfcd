// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rbmk-project/linksim/datalink"
	"github.com/rbmk-project/linksim/errclass"
	"github.com/rbmk-project/linksim/medium"
)

var (
	// ErrUnknownMedium is returned for a medium name not in the registry.
	ErrUnknownMedium = errclass.Sentinel(errclass.EINVAL, "sim: unknown medium")

	// ErrUnknownScheme is returned for a scheme name not in the registry.
	ErrUnknownScheme = errclass.Sentinel(errclass.EINVAL, "sim: unknown data-link scheme")
)

// MediumFactory creates a medium using the given config.
type MediumFactory func(config *medium.Config) (medium.Medium, error)

// SchemeFactory creates a framing scheme.
type SchemeFactory func() datalink.Scheme

// mediumEntry is a registered medium.
type mediumEntry struct {
	name string
	fx   MediumFactory
}

// schemeEntry is a registered scheme.
type schemeEntry struct {
	label string
	fx    SchemeFactory
}

// media maps lowercase names to media.
var media = map[string]mediumEntry{
	"perfect": {
		name: "Perfect",
		fx: func(config *medium.Config) (medium.Medium, error) {
			return medium.NewPerfect(config), nil
		},
	},
	"burstynoise": {
		name: "BurstyNoise",
		fx: func(config *medium.Config) (medium.Medium, error) {
			return medium.NewBurstyNoise(config)
		},
	},
}

// schemes maps lowercase names to schemes, including Dumb and
// Hamming, the historical names of the simple and parity schemes.
var schemes = map[string]schemeEntry{
	"simple":  {label: "Simple", fx: newSimple},
	"dumb":    {label: "Dumb", fx: newSimple},
	"parity":  {label: "Parity", fx: newParity},
	"hamming": {label: "Hamming", fx: newParity},
}

func newSimple() datalink.Scheme {
	return datalink.NewSimple()
}

func newParity() datalink.Scheme {
	return datalink.NewParity()
}

// NewMedium creates the medium registered as name, ignoring case,
// and returns it along with its canonical name.
func NewMedium(name string, config *medium.Config) (medium.Medium, string, error) {
	entry, found := media[strings.ToLower(name)]
	if !found {
		return nil, "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownMedium, name, strings.Join(MediumNames(), ", "))
	}
	m, err := entry.fx(config)
	if err != nil {
		return nil, "", err
	}
	return m, entry.name, nil
}

// NewScheme creates the scheme registered as name, ignoring case.
func NewScheme(name string) (datalink.Scheme, error) {
	entry, found := schemes[strings.ToLower(name)]
	if !found {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownScheme, name, strings.Join(SchemeNames(), ", "))
	}
	return entry.fx(), nil
}

// MediumNames returns the sorted canonical medium names.
func MediumNames() []string {
	var names []string
	for _, entry := range media {
		names = append(names, entry.name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// SchemeNames returns the sorted registered scheme names, aliases included.
func SchemeNames() []string {
	var names []string
	for _, entry := range schemes {
		names = append(names, entry.label)
	}
	slices.Sort(names)
	return names
}
