package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

func engineWith(t *testing.T, bodies ...particle.Vec2) *sim.Engine {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.WorldWidth, cfg.WorldHeight = 200, 100
	cfg.MaxParticles = 10
	cfg.Gravity = particle.Vec2{}
	e, err := sim.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	for _, b := range bodies {
		if _, err := e.AddParticle(b, 4, particle.Tag{R: 255, G: 16, B: 1, A: 255}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	return e
}

func TestSceneSVG(t *testing.T) {
	e := engineWith(t, particle.Vec2{X: 10, Y: 20}, particle.Vec2{X: 50, Y: 60})

	svg := SceneSVG(e, 2)
	if !strings.Contains(svg, `width="400" height="200"`) {
		t.Errorf("expected scaled dimensions in %q", svg[:120])
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
	if !strings.Contains(svg, `cx="20.0" cy="40.0" r="8.0" fill="#ff1001"`) {
		t.Error("expected first particle scaled and coloured")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("svg not closed")
	}
}

func TestSceneSVGNil(t *testing.T) {
	if SceneSVG(nil, 1) != "" {
		t.Error("expected empty output for nil engine")
	}
}

func TestSeriesSVG(t *testing.T) {
	svg := SeriesSVG([]float64{0, 1, 2}, []float64{5, 5, 5}, 100, 50, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("expected stroke colour")
	}
	if n := strings.Count(svg, " L"); n != 2 {
		t.Errorf("expected 2 line segments, got %d", n)
	}
	if SeriesSVG([]float64{0}, []float64{1}, 10, 10, "red") != "" {
		t.Error("expected empty output for a single point")
	}
}

func TestCaptureAndWriteJSON(t *testing.T) {
	e := engineWith(t, particle.Vec2{X: 10, Y: 20})
	h := sim.Handle(0)
	if err := e.SetVelocity(h, particle.Vec2{X: 64}, 1.0/64); err != nil {
		t.Fatal(err)
	}
	e.Step(1.0 / 64)

	snap := Capture(e, map[string]float64{"energy": 1})
	if snap.Boundary != "rect" || snap.Steps != 1 || len(snap.Particles) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	b := snap.Particles[0]
	if b.X != 11 || b.VX != 64 || b.Color != "#ff1001" {
		t.Errorf("unexpected body: %+v", b)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Particles[0].Radius != 4 || back.Metrics["energy"] != 1 {
		t.Errorf("unexpected decoded snapshot: %+v", back)
	}
}

func TestCaptureBeforeFirstStep(t *testing.T) {
	e := engineWith(t, particle.Vec2{X: 10, Y: 20})
	snap := Capture(e, nil)
	if snap.Particles[0].VX != 0 || snap.Particles[0].VY != 0 {
		t.Errorf("expected zero velocity before stepping, got %+v", snap.Particles[0])
	}
}
