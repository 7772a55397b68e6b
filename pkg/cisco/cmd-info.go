package cisco

// Description of commands that will be parsed.
// - $NAME matches name of command; only used in toplevel commands.
// - $SEQ matches a number.
// - $ARG matches a single word.
// - * matches one or more words at end of command.
// Other words must match literally.
// First word is used as prefix.
// If multiple words are used as prefix, space is replaced by underscore.
//
// Special characters at beginning of line:
// <space>: Mark subcommands of previous command
// !: Matching command or subcommand will be ignored
// +: Subcommands of this subcommand belong to enclosing toplevel command
// #: Comment that is ignored
var cmdInfo = `
router_bgp $NAME
 neighbor $ARG remote-as $ARG
 neighbor $ARG peer-group
 neighbor $ARG peer-group $ARG
 neighbor $ARG description *
 neighbor $ARG route-map $ARG in
 neighbor $ARG route-map $ARG out
 neighbor $ARG send-community $ARG
 neighbor $ARG send-community
 network $ARG mask $ARG *
 network $ARG mask $ARG
 network $ARG *
 network $ARG
 aggregate-address $ARG $ARG *
 aggregate-address $ARG $ARG
 +address-family ipv4
 +address-family ipv4 unicast
 # VRF and IPv6 are left untouched.
 !address-family *

route-map $NAME permit $SEQ
 match *
 set *
route-map $NAME deny $SEQ
 match *
 set *
route-map $NAME permit
 match *
 set *
route-map $NAME deny
 match *
 set *

ip_as-path_access-list $SEQ permit *
ip_as-path_access-list $SEQ deny *
`
