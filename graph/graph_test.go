package graph

import (
	"math"
	"testing"
)

type constNode struct {
	Base
	value float32
}

func newConstNode(name string, value float32) *constNode {
	return &constNode{Base: NewBase(name), value: value}
}

func (c *constNode) Render(buf []float32, channels int) {
	for i := range buf {
		buf[i] = c.value
	}
}

func TestEmptyMixerRendersSilence(t *testing.T) {
	m := NewMixer("master")
	buf := make([]float32, 8)
	for i := range buf {
		buf[i] = 0
	}
	m.Render(buf, 2)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestMixerSumsChildrenWithVolumeAndPan(t *testing.T) {
	m := NewMixer("master")
	a := newConstNode("a", 1.0)
	a.SetVolume(0.5)
	a.SetPan(0.5) // center: l=r=sqrt(2)/2
	m.AddComponent(a)

	buf := make([]float32, 4) // 2 frames stereo
	m.Render(buf, 2)

	want := float32(0.5 * math.Sqrt2 / 2)
	for i, v := range buf {
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("buf[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestRemoveComponentDetaches(t *testing.T) {
	m := NewMixer("master")
	m.AddComponent(newConstNode("a", 1))
	m.AddComponent(newConstNode("b", 1))
	if !m.RemoveComponent("a") {
		t.Fatal("expected RemoveComponent(a) to succeed")
	}
	if len(m.Components()) != 1 || m.Components()[0].Name() != "b" {
		t.Fatalf("components = %+v, want only b", m.Components())
	}
}

func TestDisabledChildContributesNothing(t *testing.T) {
	m := NewMixer("master")
	a := newConstNode("a", 1.0)
	a.SetEnabled(false)
	m.AddComponent(a)

	buf := make([]float32, 4)
	m.Render(buf, 2)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("disabled child contributed %v, want 0", v)
		}
	}
}
