package cache

import "fmt"

const PointListKey = "points:catalog"

func PointKey(pointID string) string {
	return fmt.Sprintf("points:%s", pointID)
}
