package corelog

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// currentGoroutineID parses the calling goroutine's runtime-assigned id
// out of a runtime.Stack trace, the same technique
// ugorji-go-common/runtimeutil.GoroutineID uses (itself credited there
// to $GOROOT/src/net/http/h2_bundle.go). It's the closest Go analogue
// to the platform thread handle spec.md §3 keys per-thread state on;
// unlike a real thread id it is only stable for the goroutine's
// lifetime, which is exactly the scope Producer state needs.
func currentGoroutineID() uint64 {
	bp := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bp)
	b := *bp
	b = b[:runtime.Stack(b, false)]

	b = bytes.TrimPrefix(b, goroutinePrefix)
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

var goroutinePrefix = []byte("goroutine ")

var stackBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 64)
		return &buf
	},
}
