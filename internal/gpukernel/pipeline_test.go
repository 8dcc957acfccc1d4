package gpukernel

import "testing"

func TestWorkgroupCounts(t *testing.T) {
	tests := []struct {
		w, h       int
		wantX, wantY uint32
	}{
		{8, 8, 1, 1},
		{9, 8, 2, 1},
		{64, 32, 8, 4},
		{1, 1, 1, 1},
	}
	for _, tt := range tests {
		x, y := workgroupCounts(tt.w, tt.h)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("workgroupCounts(%d,%d) = (%d,%d), want (%d,%d)", tt.w, tt.h, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestPipeline_RecordDispatch_RejectsZero(t *testing.T) {
	p := &Pipeline{built: true}
	if err := p.recordDispatch(0, 1, 1); err != ErrWorkgroupCountZero {
		t.Errorf("recordDispatch with x=0 = %v, want ErrWorkgroupCountZero", err)
	}
}

func TestPipeline_RecordDispatch_RequiresBuilt(t *testing.T) {
	p := &Pipeline{}
	if err := p.recordDispatch(1, 1, 1); err != ErrPipelineNotBuilt {
		t.Errorf("recordDispatch on unbuilt pipeline = %v, want ErrPipelineNotBuilt", err)
	}
}

func TestPipeline_DispatchCount(t *testing.T) {
	p := &Pipeline{built: true}
	for i := 0; i < 3; i++ {
		if err := p.recordDispatch(1, 1, 1); err != nil {
			t.Fatalf("recordDispatch: %v", err)
		}
	}
	if got := p.DispatchCount(); got != 3 {
		t.Errorf("DispatchCount() = %d, want 3", got)
	}
}
