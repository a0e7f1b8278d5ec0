// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	experimentalsys "github.com/tetratelabs/wazero/experimental/sys"
	"github.com/tetratelabs/wazero/experimental/sysfs"
	"github.com/tetratelabs/wazero/sys"
)

// confinedFS serves one mount from its host directory. Every path is first
// resolved through Layout.Resolve, so symbolic links, whether shipped with
// the package or created by the plugin, cannot reach outside the mount.
type confinedFS struct {
	experimentalsys.FS
	layout Layout
	guest  string
}

// mountFS returns the guest file system for m.
func mountFS(l Layout, m Mount) experimentalsys.FS {
	var fsys experimentalsys.FS = &confinedFS{FS: sysfs.DirFS(m.Host), layout: l, guest: m.Guest}
	if m.ReadOnly {
		fsys = &sysfs.ReadFS{FS: fsys}
	}
	return fsys
}

// check refuses name when it, with every link followed, leaves the mount.
func (c *confinedFS) check(name string) experimentalsys.Errno {
	return c.resolve(name, name)
}

// checkParent is check for operations that act on a link itself rather
// than on its target: only the parent directory is followed.
func (c *confinedFS) checkParent(name string) experimentalsys.Errno {
	dir, _ := path.Split(name)
	return c.resolve(name, dir)
}

func (c *confinedFS) resolve(name, followed string) experimentalsys.Errno {
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return experimentalsys.EPERM
		}
	}
	_, err := c.layout.Resolve(c.guest + "/" + followed)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrPathEscape), errors.Is(err, ErrUnmappedPath):
		return experimentalsys.EPERM
	case errors.Is(err, fs.ErrNotExist):
		return experimentalsys.ENOENT
	default:
		return experimentalsys.EACCES
	}
}

func (c *confinedFS) OpenFile(name string, flag experimentalsys.Oflag, perm fs.FileMode) (experimentalsys.File, experimentalsys.Errno) {
	if errno := c.check(name); errno != 0 {
		return nil, errno
	}
	return c.FS.OpenFile(name, flag, perm)
}

func (c *confinedFS) Lstat(name string) (sys.Stat_t, experimentalsys.Errno) {
	if errno := c.checkParent(name); errno != 0 {
		return sys.Stat_t{}, errno
	}
	return c.FS.Lstat(name)
}

func (c *confinedFS) Stat(name string) (sys.Stat_t, experimentalsys.Errno) {
	if errno := c.check(name); errno != 0 {
		return sys.Stat_t{}, errno
	}
	return c.FS.Stat(name)
}

func (c *confinedFS) Mkdir(name string, perm fs.FileMode) experimentalsys.Errno {
	if errno := c.checkParent(name); errno != 0 {
		return errno
	}
	return c.FS.Mkdir(name, perm)
}

func (c *confinedFS) Chmod(name string, perm fs.FileMode) experimentalsys.Errno {
	if errno := c.check(name); errno != 0 {
		return errno
	}
	return c.FS.Chmod(name, perm)
}

func (c *confinedFS) Rename(from, to string) experimentalsys.Errno {
	if errno := c.checkParent(from); errno != 0 {
		return errno
	}
	if errno := c.checkParent(to); errno != 0 {
		return errno
	}
	return c.FS.Rename(from, to)
}

func (c *confinedFS) Rmdir(name string) experimentalsys.Errno {
	if errno := c.checkParent(name); errno != 0 {
		return errno
	}
	return c.FS.Rmdir(name)
}

func (c *confinedFS) Unlink(name string) experimentalsys.Errno {
	if errno := c.checkParent(name); errno != 0 {
		return errno
	}
	return c.FS.Unlink(name)
}

func (c *confinedFS) Link(oldName, newName string) experimentalsys.Errno {
	if errno := c.check(oldName); errno != 0 {
		return errno
	}
	if errno := c.checkParent(newName); errno != 0 {
		return errno
	}
	return c.FS.Link(oldName, newName)
}

// Symlink stores target verbatim; later lookups through the link are checked.
func (c *confinedFS) Symlink(target, link string) experimentalsys.Errno {
	if errno := c.checkParent(link); errno != 0 {
		return errno
	}
	return c.FS.Symlink(target, link)
}

func (c *confinedFS) Readlink(name string) (string, experimentalsys.Errno) {
	if errno := c.checkParent(name); errno != 0 {
		return "", errno
	}
	return c.FS.Readlink(name)
}

func (c *confinedFS) Utimens(name string, atim, mtim int64) experimentalsys.Errno {
	if errno := c.check(name); errno != 0 {
		return errno
	}
	return c.FS.Utimens(name, atim, mtim)
}
