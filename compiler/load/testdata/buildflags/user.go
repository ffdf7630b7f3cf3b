package buildflags

//sqlwith:fromrow db=sqlite
type User struct {
	Name string
}
