package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	colorspace := archunit.Packages("colorspace", []string{".../internal/colorspace"})
	discovery := archunit.Packages("discovery", []string{".../internal/discovery"})
	models := archunit.Packages("models", []string{".../internal/models"})
	api := archunit.Packages("api", []string{".../internal/api"})
	tui := archunit.Packages("tui", []string{".../internal/tui/..."})

	// The gamut math stands alone
	if err := colorspace.ShouldNotReferLayers(discovery, models, api, tui); err != nil {
		t.Errorf("Architecture violation: colorspace depends on other layers: %v", err)
	}

	if err := discovery.ShouldNotReferLayers(models, api, tui); err != nil {
		t.Errorf("Architecture violation: discovery depends on bridge layers: %v", err)
	}

	if err := models.ShouldNotReferLayers(api, tui); err != nil {
		t.Errorf("Architecture violation: models depend on api or tui: %v", err)
	}

	if err := api.ShouldNotReferLayers(tui); err != nil {
		t.Errorf("Architecture violation: api depends on tui: %v", err)
	}
}

func TestLayersPresent(t *testing.T) {
	for _, name := range []string{"colorspace", "discovery", "api"} {
		layer := archunit.Packages(name, []string{".../internal/" + name})
		if len(layer.Packages()) == 0 {
			t.Errorf("No %s package found", name)
		}
	}
}
