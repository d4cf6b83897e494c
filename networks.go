// Copyright 2025 Kaspeak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kaspeak

import "github.com/kaspeak/kaspeak-go/ledger"

// Network definitions
var (
	NetworkMainnet = Network{
		Name:          "mainnet",
		NetworkMagic:  1,
		AddressPrefix: ledger.AddressPrefixMainnet,
	}
	NetworkTestnet10 = Network{
		Name:          "testnet-10",
		NetworkMagic:  10,
		AddressPrefix: ledger.AddressPrefixTestnet,
	}
	NetworkTestnet11 = Network{
		Name:          "testnet-11",
		NetworkMagic:  11,
		AddressPrefix: ledger.AddressPrefixTestnet,
	}

	NetworkInvalid = Network{
		Name:         "invalid",
		NetworkMagic: 0,
	} // NetworkInvalid is used as a return value for lookup functions when a network isn't found
)

// List of valid networks for use in lookup functions
var networks = []Network{
	NetworkMainnet,
	NetworkTestnet10,
	NetworkTestnet11,
}

// NetworkByName returns a predefined network by name
func NetworkByName(name string) Network {
	for _, network := range networks {
		if network.Name == name {
			return network
		}
	}
	return NetworkInvalid
}

// NetworkByNetworkMagic returns a predefined network by network magic
func NetworkByNetworkMagic(networkMagic uint32) Network {
	for _, network := range networks {
		if network.NetworkMagic == networkMagic {
			return network
		}
	}
	return NetworkInvalid
}

// Network represents a Kaspa network
type Network struct {
	Name          string
	NetworkMagic  uint32
	AddressPrefix string
}

func (n Network) String() string {
	return n.Name
}
