package httpserver

import "strconv"

func uintPath(id uint) string { return strconv.FormatUint(uint64(id), 10) }
