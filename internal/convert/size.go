// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package convert

import "fmt"

// HumanSize formats a byte count with one decimal place, scaling by 1024
// through B, K, M, G, T, P.
func HumanSize(bytes int64) string {
	size := float64(bytes)
	for _, unit := range []string{"B", "K", "M", "G", "T"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f%s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1fP", size)
}
