package provider

import (
	"context"
	"testing"
)

type fakeProvider struct {
	name string
}

func (f *fakeProvider) Name() string                       { return f.name }
func (f *fakeProvider) IsAvailable(_ context.Context) bool { return true }

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*fakeProvider]()
	reg.RegisterFactory("fake", func(cfg map[string]any) (*fakeProvider, error) {
		return &fakeProvider{name: "fake"}, nil
	})

	p, err := reg.Create("fake", nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "fake" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

func TestRegistryCreateUnknown(t *testing.T) {
	reg := NewRegistry[*fakeProvider]()
	if _, err := reg.Create("nope", nil); err == nil {
		t.Fatal("expected error for unregistered factory")
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry[*fakeProvider]()
	reg.RegisterFactory("b", func(map[string]any) (*fakeProvider, error) { return nil, nil })
	reg.RegisterFactory("a", func(map[string]any) (*fakeProvider, error) { return nil, nil })
	names := reg.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("unexpected list: %v", names)
	}
}
