package seed

import "testing"

func TestComputeCounts_Default(t *testing.T) {
	text, image, video, quote, repost := computeCounts(20, defaultDistribution)
	if text+image+video+quote+repost != 20 {
		t.Fatalf("sum mismatch: got %d", text+image+video+quote+repost)
	}
	if text != 10 || image != 6 || video != 2 || quote != 1 || repost != 1 {
		t.Fatalf("unexpected default counts: text=%d, image=%d, video=%d, quote=%d, repost=%d", text, image, video, quote, repost)
	}
}

func TestComputeCounts_RemainderGoesToText(t *testing.T) {
	text, image, video, quote, repost := computeCounts(7, defaultDistribution)
	if text+image+video+quote+repost != 7 {
		t.Fatalf("sum mismatch: got %d", text+image+video+quote+repost)
	}
	if text < image {
		t.Fatalf("text should absorb the rounding remainder: text=%d, image=%d", text, image)
	}
}
