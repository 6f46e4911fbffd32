package model

import (
	"github.com/go-rod/rod/lib/proto"
)

// Cookie is one entry of the persisted session file. The JSON shape is the
// session-file contract: name/value/domain/path plus transport flags.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

func CookiesFromBrowser(in []*proto.NetworkCookie) []Cookie {
	out := make([]Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: sameSiteToString(c.SameSite),
		})
	}
	return out
}

func CookiesToParams(in []Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(in))
	for _, c := range in {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSiteFromString(c.SameSite),
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		out = append(out, p)
	}
	return out
}

func sameSiteToString(s proto.NetworkCookieSameSite) string {
	switch s {
	case proto.NetworkCookieSameSiteLax:
		return "lax"
	case proto.NetworkCookieSameSiteStrict:
		return "strict"
	case proto.NetworkCookieSameSiteNone:
		return "none"
	default:
		return ""
	}
}

func sameSiteFromString(s string) proto.NetworkCookieSameSite {
	switch s {
	case "lax":
		return proto.NetworkCookieSameSiteLax
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "none":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}
