package middleware

import (
	"net/http"
	"sort"
	"strings"

	"orderhub/internal/common"

	"github.com/labstack/echo/v4"
)

// APIVersion describes one mounted API version.
type APIVersion struct {
	Version string
	Status  string // "active" or "deprecated"
	Message string
}

// VersionMiddleware mounts versioned route groups and stamps their responses.
type VersionMiddleware struct {
	supported map[string]APIVersion
}

func NewVersionMiddleware(versions ...APIVersion) *VersionMiddleware {
	if len(versions) == 0 {
		versions = []APIVersion{{Version: "v1", Status: "active", Message: "Current stable API version"}}
	}
	supported := make(map[string]APIVersion, len(versions))
	for _, v := range versions {
		supported[v.Version] = v
	}
	return &VersionMiddleware{supported: supported}
}

// VersionRoute creates the /<version> group with version headers applied.
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(vm.versionHeader(version))
	return group
}

func (vm *VersionMiddleware) versionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Set("X-API-Version", version)
			if ver, ok := vm.supported[version]; ok {
				if ver.Status == "deprecated" {
					header.Set("X-API-Deprecated", "true")
				}
				if ver.Message != "" {
					header.Set("X-API-Message", ver.Message)
				}
			}
			return next(c)
		}
	}
}

// RejectUnknownVersions answers 404 for /vN paths that are not mounted.
func (vm *VersionMiddleware) RejectUnknownVersions() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := versionFromPath(c.Request().URL.Path)
			if version != "" {
				if _, ok := vm.supported[version]; !ok {
					return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", "Unsupported API version", map[string]string{
						"supported_versions": strings.Join(vm.Versions(), ", "),
					}))
				}
			}
			return next(c)
		}
	}
}

// Versions lists supported versions in order.
func (vm *VersionMiddleware) Versions() []string {
	versions := make([]string, 0, len(vm.supported))
	for v := range vm.supported {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// versionFromPath returns "vN" for paths starting with /vN[/...], else "".
func versionFromPath(path string) string {
	segment := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}
	if len(segment) < 2 || segment[0] != 'v' {
		return ""
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return segment
}
