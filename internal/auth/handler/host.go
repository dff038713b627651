package handler

import "sync"

// redirectHost presents a social login to an HTTP client by handing it
// the dialog URL instead of opening a browser.
type redirectHost struct {
	once   sync.Once
	opened chan string
}

func newRedirectHost() *redirectHost {
	return &redirectHost{opened: make(chan string, 1)}
}

func (h *redirectHost) Open(authURL string) error {
	h.once.Do(func() { h.opened <- authURL })
	return nil
}
