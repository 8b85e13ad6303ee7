package cache

import "fmt"

// KeyMowers holds the index of mower ids with persisted state. It never
// expires; entries pointing at expired per-mower keys are skipped on
// restore.
const KeyMowers = "mowers"

func KeySnapshot(mowerID string) string {
	return fmt.Sprintf("snapshot:%s", mowerID)
}

func KeyZone(mowerID string) string {
	return fmt.Sprintf("zone:%s", mowerID)
}

func KeyFrame(mowerID string) string {
	return fmt.Sprintf("frame:%s", mowerID)
}

func KeyFrameInfo(mowerID string) string {
	return fmt.Sprintf("frame:info:%s", mowerID)
}
