//go:build hidegroups

package buildflags

//sqlwith:fromrow db=sqlite
type Group struct {
	Name string
}
