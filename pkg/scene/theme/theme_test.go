package theme

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/chainflow/pkg/chain"
	"github.com/matzehuels/chainflow/pkg/scene/pool"
)

func count(decor []Decor, category string) int {
	n := 0
	for _, d := range decor {
		if d.Category == category {
			n++
		}
	}
	return n
}

func TestNewEveryKind(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			th, err := New(k, 1)
			if err != nil {
				t.Fatalf("New(%s) error = %v", k, err)
			}
			if th.Kind() != k {
				t.Errorf("Kind() = %s, want %s", th.Kind(), k)
			}
		})
	}
	if _, err := New("disco", 1); err == nil {
		t.Error("New(disco) should fail")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindNormal, false},
		{"space", KindSpace, false},
		{"tron", KindTron, false},
		{"quai", "", true},
		{"christmas", "", true},
		{"cyber", "", true},
		{"mining", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestPalette(t *testing.T) {
	th, _ := New(KindTron, 1)
	p := th.Palette()
	if p.For(chain.TypePrime) != 0x00ffff || p.For(chain.TypeBlock) != 0x0044aa {
		t.Errorf("tron palette = %+v", p)
	}
	if got := Color(0x4CAF50).Hex(); got != "#4caf50" {
		t.Errorf("Hex() = %s, want #4caf50", got)
	}
	normal, _ := New(KindNormal, 1)
	if normal.Palette().For(chain.TypeWorkshare) != 0x2196F3 {
		t.Errorf("normal workshare color = %v", normal.Palette().For(chain.TypeWorkshare).Hex())
	}
}

func TestNormalHasNoDecor(t *testing.T) {
	th, _ := New(KindNormal, 1)
	th.GenerateSegment(0, 50000)
	if n := len(th.Decor()); n != 0 {
		t.Errorf("normal theme decor = %d, want 0", n)
	}
}

func TestTronInitialSegments(t *testing.T) {
	th, _ := New(KindTron, 1)
	decor := th.Decor()
	if got := count(decor, CategoryFloor); got != 2 {
		t.Errorf("floor segments = %d, want 2", got)
	}
	if got := count(decor, CategoryBuilding); got != 10 {
		t.Errorf("buildings = %d, want 10", got)
	}

	// Already covered up to 4000: nothing new.
	th.GenerateSegment(-500, 3900)
	if got := len(th.Decor()); got != len(decor) {
		t.Errorf("decor after covered range = %d, want %d", got, len(decor))
	}

	th.GenerateSegment(-500, 12000)
	if got := count(th.Decor(), CategoryFloor); got != 4 {
		t.Errorf("floor segments = %d, want 4", got)
	}
}

func TestGenerateSegmentBurstIsBounded(t *testing.T) {
	th, _ := New(KindTron, 1)
	th.GenerateSegment(0, 1e9)
	if got := count(th.Decor(), CategoryFloor); got != 2+maxBurst {
		t.Errorf("floor segments = %d, want %d", got, 2+maxBurst)
	}
}

func TestCullBehindOffset(t *testing.T) {
	th, _ := New(KindSpace, 3)
	stars := count(th.Decor(), CategoryStar)
	if stars == 0 {
		t.Fatal("space theme should create a starfield")
	}
	for x := 0.0; x < 100000; x += 20000 {
		th.GenerateSegment(x, x+20000)
	}

	th.UpdateAnimations(200000)
	decor := th.Decor()
	if got := count(decor, CategoryAsteroid); got != 0 {
		t.Errorf("asteroids after scrolling past = %d, want 0", got)
	}
	if got := count(decor, CategoryStar); got != stars {
		t.Errorf("fixed stars = %d, want %d", got, stars)
	}
}

func TestAnimationsSpinAndAge(t *testing.T) {
	th, _ := New(KindTron, 9)
	before := th.Decor()
	th.UpdateAnimations(0)
	after := th.Decor()

	byID := make(map[int]Decor, len(after))
	for _, d := range after {
		byID[d.ID] = d
	}
	for _, d := range before {
		a, ok := byID[d.ID]
		if !ok {
			continue
		}
		if d.Category == CategoryDisc && a.Rotation == d.Rotation {
			t.Errorf("disc %d did not spin", d.ID)
		}
		if d.Life > 0 && a.Life >= d.Life {
			t.Errorf("%s %d did not age", d.Category, d.ID)
		}
	}
}

func TestSeededAndRestartable(t *testing.T) {
	a, _ := New(KindSpace, 42)
	b, _ := New(KindSpace, 42)
	a.GenerateSegment(0, 30000)
	b.GenerateSegment(0, 30000)
	if diff := cmp.Diff(a.Decor(), b.Decor()); diff != "" {
		t.Errorf("same seed differs (-a +b):\n%s", diff)
	}

	first := a.Decor()
	a.Cleanup()
	if len(a.Decor()) != 0 {
		t.Errorf("decor after Cleanup = %d, want 0", len(a.Decor()))
	}
	a.Init()
	a.GenerateSegment(0, 30000)
	if diff := cmp.Diff(first, a.Decor()); diff != "" {
		t.Errorf("restart differs (-first +restart):\n%s", diff)
	}
}

func TestRenderedShift(t *testing.T) {
	scrolling := Decor{Position: pool.Vec3{X: 100}}
	fixed := Decor{Position: pool.Vec3{X: 100}, Fixed: true}
	if got := scrolling.Rendered(30).X; got != 70 {
		t.Errorf("scrolling Rendered().X = %v, want 70", got)
	}
	if got := fixed.Rendered(30).X; got != 100 {
		t.Errorf("fixed Rendered().X = %v, want 100", got)
	}
}
