//go:build windows

package diskusage

import (
	"io/fs"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// invalidFileSize is the low-order sentinel GetCompressedFileSizeW returns on failure.
const invalidFileSize = 0xFFFFFFFF

//nolint:gochecknoglobals // Lazily bound system call
var procGetCompressedFileSizeW = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetCompressedFileSizeW")

type platformProbe struct{}

// Size returns the compressed or sparse-aware size on disk reported by NTFS.
func (platformProbe) Size(path string, _ fs.FileInfo) (uint64, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, &fs.PathError{Op: "GetCompressedFileSize", Path: path, Err: err}
	}

	var high uint32

	low, _, callErr := procGetCompressedFileSizeW.Call(
		uintptr(unsafe.Pointer(name)),
		uintptr(unsafe.Pointer(&high)),
	)
	if uint32(low) == invalidFileSize && callErr != windows.ERROR_SUCCESS {
		return 0, &fs.PathError{Op: "GetCompressedFileSize", Path: path, Err: callErr}
	}

	return uint64(high)<<32 | uint64(uint32(low)), nil
}

// Identity returns the (volume serial, file index) pair of files with more than one link.
func (platformProbe) Identity(path string, _ fs.FileInfo) (LinkIdentity, bool) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return LinkIdentity{}, false
	}

	handle, err := windows.CreateFile(
		name,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return LinkIdentity{}, false
	}
	defer windows.CloseHandle(handle) //nolint:errcheck // Read-only handle

	var data windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(handle, &data); err != nil || data.NumberOfLinks < 2 {
		return LinkIdentity{}, false
	}

	return LinkIdentity{
		Device: uint64(data.VolumeSerialNumber),
		Index:  uint64(data.FileIndexHigh)<<32 | uint64(data.FileIndexLow),
	}, true
}

// isHidden reports whether the entry has a dot prefix or the hidden attribute.
func isHidden(d fs.DirEntry) bool {
	if hasHiddenPrefix(d.Name()) {
		return true
	}

	info, err := d.Info()
	if err != nil {
		return false
	}

	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)

	return ok && attrs.FileAttributes&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
