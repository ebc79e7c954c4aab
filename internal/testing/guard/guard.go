package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PAYDESK_TEST_MODE") == "" {
			_ = os.Setenv("PAYDESK_TEST_MODE", "1")
		}
	})
}
