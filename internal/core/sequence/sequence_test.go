package sequence

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		num  int64
		want string
	}{
		{"sale default", DefaultConfig(KindSale), 1, "SAL-2026-00001"},
		{"purchase default", DefaultConfig(KindPurchase), 42, "PUR-2026-00042"},
		{"no year", Config{Prefix: "X", PadWidth: 3}, 7, "X-007"},
		{"zero pad width falls back to 5", Config{Prefix: "Y", IncludeYear: true}, 12, "Y-2026-00012"},
		{"overflow keeps digits", DefaultConfig(KindSale), 1234567, "SAL-2026-1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.cfg, period, tt.num); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("SAL-2026-00042"); got != 42 {
		t.Errorf("ParseNumber = %d, want 42", got)
	}
	if got := ParseNumber("X-007"); got != 7 {
		t.Errorf("ParseNumber = %d, want 7", got)
	}
	if got := ParseNumber("garbage"); got != -1 {
		t.Errorf("ParseNumber = %d, want -1", got)
	}
}

func TestMockGenerator_ConcurrentDistinctNumbers(t *testing.T) {
	gen := NewMockGenerator()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	results := make(chan int64, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := gen.NextNumber(ctx, "tenant-1", KindSale)
			if err != nil {
				t.Errorf("NextNumber failed: %v", err)
				return
			}
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for num := range results {
		if seen[num] {
			t.Fatalf("duplicate number issued: %d", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct numbers, got %d", n, len(seen))
	}
}

func TestMockGenerator_IndependentCounters(t *testing.T) {
	gen := NewMockGenerator()
	ctx := context.Background()

	a, _ := gen.NextNumber(ctx, "tenant-1", KindSale)
	b, _ := gen.NextNumber(ctx, "tenant-1", KindPurchase)
	c, _ := gen.NextNumber(ctx, "tenant-2", KindSale)

	if a != 1 || b != 1 || c != 1 {
		t.Errorf("counters not independent: got %d, %d, %d", a, b, c)
	}
}
