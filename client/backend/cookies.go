package backend

import (
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// CookieStore persists the cookies the backend issues, so cookie-authenticated
// calls keep working after the process restarts. session.FileStore implements
// it.
type CookieStore interface {
	LoadCookies() ([]*http.Cookie, error)
	SaveCookies([]*http.Cookie) error
}

// WithCookieStore loads the stored cookies into the client's jar and saves the
// jar's cookies for the backend URL whenever a response sets one.
func WithCookieStore(cs CookieStore) Option {
	return func(c *Client) { c.cookies = cs }
}

type persistentJar struct {
	http.CookieJar
	base  *url.URL
	store CookieStore
	log   logrus.FieldLogger
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.CookieJar.SetCookies(u, cookies)
	if err := j.store.SaveCookies(j.CookieJar.Cookies(j.base)); err != nil {
		j.log.Warnf("saving cookies: %v", err)
	}
}

func (c *Client) persistCookies() error {
	if c.cookies == nil || c.hc.Jar == nil {
		return nil
	}

	stored, err := c.cookies.LoadCookies()
	if err != nil {
		return err
	}
	if len(stored) > 0 {
		c.hc.Jar.SetCookies(c.base, stored)
	}

	hc := *c.hc
	hc.Jar = &persistentJar{CookieJar: c.hc.Jar, base: c.base, store: c.cookies, log: c.log}
	c.hc = &hc
	return nil
}
