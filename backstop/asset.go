// Copyright (c) 2026 The Backstop developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package backstop

// AssetID identifies an asset held by the module. Assets are addressed by
// the account of the contract that issues them, so AssetID shares the
// Address representation.
type AssetID = Address

// ParseAssetID convert string presented asset id into AssetID type.
func ParseAssetID(s string) (*AssetID, error) {
	return ParseAddress(s)
}
