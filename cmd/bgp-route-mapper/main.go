package main

/*
bgp-route-mapper -- Tag routes sent to BGP peers with a community.

Reads the BGP configuration of Cisco IOS routers, computes the
route-maps, as-path access-lists and neighbor commands needed to add a
community to all routes sent to eligible peers and applies them after
confirmation.

This program is free software; you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation; either version 2 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License along
with this program; if not, write to the Free Software Foundation, Inc.,
51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
*/

import (
	"os"

	"github.com/hknutzen/bgp-route-mapper/pkg/mapper"
)

func main() {
	os.Exit(mapper.Main())
}
