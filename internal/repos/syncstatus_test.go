package repos

import "testing"

func TestCompare(t *testing.T) {
	t.Parallel()

	const (
		tipA = "aaaa"
		tipB = "bbbb"
		base = "cccc"
	)

	tests := []struct {
		name      string
		local     string
		remote    string
		mergeBase string
		ahead     int
		behind    int
		want      SyncStatusRecord
	}{
		{
			name:  "identical tips are synced",
			local: tipA, remote: tipA, mergeBase: tipA,
			want: SyncStatusRecord{Status: StateSynced},
		},
		{
			name:  "identical tips override stray counts",
			local: tipA, remote: tipA, mergeBase: tipA, ahead: 3, behind: 2,
			want: SyncStatusRecord{Status: StateSynced},
		},
		{
			name:  "ahead",
			local: tipA, remote: tipB, mergeBase: tipB, ahead: 2, behind: 0,
			want: SyncStatusRecord{Ahead: 2, Status: StateAhead},
		},
		{
			name:  "behind",
			local: tipA, remote: tipB, mergeBase: tipA, ahead: 0, behind: 3,
			want: SyncStatusRecord{Behind: 3, Status: StateBehind},
		},
		{
			name:  "diverged",
			local: tipA, remote: tipB, mergeBase: base, ahead: 1, behind: 4,
			want: SyncStatusRecord{Ahead: 1, Behind: 4, Status: StateDiverged},
		},
		{
			name:  "merge base equal to remote zeroes behind",
			local: tipA, remote: tipB, mergeBase: tipB, ahead: 2, behind: 5,
			want: SyncStatusRecord{Ahead: 2, Status: StateAhead},
		},
		{
			name:  "merge base equal to local zeroes ahead",
			local: tipA, remote: tipB, mergeBase: tipA, ahead: 5, behind: 2,
			want: SyncStatusRecord{Behind: 2, Status: StateBehind},
		},
		{
			name:  "zero counts with distinct tips are synced",
			local: tipA, remote: tipB, mergeBase: base,
			want: SyncStatusRecord{Status: StateSynced},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Compare(tt.local, tt.remote, tt.mergeBase, tt.ahead, tt.behind)
			if got != tt.want {
				t.Errorf("Compare = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	t.Parallel()
	first := Compare("aaaa", "bbbb", "cccc", 2, 3)
	for range 10 {
		if got := Compare("aaaa", "bbbb", "cccc", 2, 3); got != first {
			t.Fatalf("Compare returned %+v after %+v for identical inputs", got, first)
		}
	}
}
