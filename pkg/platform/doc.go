// SPDX-License-Identifier: MPL-2.0

// Package platform holds the small amount of host knowledge paxy needs:
// OS name constants, detection of a confining application sandbox (Flatpak
// or Snap) together with the argv prefix required to reach the host from
// inside it, and portable file-name validation for names that become
// directories on disk, such as flavor and repository names.
package platform
