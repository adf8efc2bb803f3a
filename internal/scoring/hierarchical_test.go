package scoring

import (
	"testing"

	"github.com/Bapt252/nextvision/internal/domain"
)

func TestHierarchicalScore_Equal(t *testing.T) {
	if got := HierarchicalScore(domain.LevelSenior, domain.LevelSenior); got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
}

func TestHierarchicalScore_OneStepGap(t *testing.T) {
	got := HierarchicalScore(domain.LevelManager, domain.LevelSenior)
	want := 1.0 - hierarchicalStepDecay
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestHierarchicalScore_WidestGap(t *testing.T) {
	got := HierarchicalScore(domain.LevelExecutive, domain.LevelEntry)
	want := 1.0 - hierarchicalStepDecay*5
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
