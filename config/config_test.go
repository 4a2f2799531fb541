package config

import "testing"

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Grid.NX != 16 || cfg.Grid.NY != 16 || cfg.Grid.NZ != 8 {
		t.Errorf("unexpected grid dims: %+v", cfg.Grid)
	}
	if cfg.Derived.CellCount != 16*16*8 {
		t.Errorf("expected derived cell count %d, got %d", 16*16*8, cfg.Derived.CellCount)
	}
	if cfg.Regen.RV <= 0 || cfg.Regen.RV >= 1 {
		t.Errorf("expected r_v in (0,1), got %f", cfg.Regen.RV)
	}
}

func TestLoadFBTableAnchorsMatchDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Microbial.FBTable) == 0 {
		t.Fatal("expected non-empty FB table in defaults")
	}
	first := cfg.Microbial.FBTable[0]
	if first.FB != 0.1 || first.P != 1.0 {
		t.Errorf("expected first FB anchor {0.1,1.0}, got %+v", first)
	}
}

func TestMustInitPanicsOnBadPath(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustInit to panic on a nonexistent config path")
		}
	}()
	MustInit("/nonexistent/path/does/not/exist.yaml")
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Cfg() to panic before Init()")
		}
	}()
	Cfg()
}

func TestInitThenCfgReturnsLoadedConfig(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	cfg := Cfg()
	if cfg.Grid.DefaultDt != 1.0 {
		t.Errorf("expected default_dt 1.0, got %f", cfg.Grid.DefaultDt)
	}
}
