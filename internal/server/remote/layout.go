package remote

import "path"

// Layout describes where per-user artifacts live on the backup host.
type Layout struct {
	// Root holds one directory per user id, e.g. /srv/repos.
	Root string
	// ScriptsDir holds the provisioning and borg helper scripts.
	ScriptsDir string
}

// UserDir is the home of a user's repository.
func (l Layout) UserDir(id string) string { return path.Join(l.Root, id) }

// KeyFile is where borg expects the repository key of user id.
func (l Layout) KeyFile(id string) string {
	return path.Join(l.Root, id, ".config", "borg", "keys", "srv_repos_"+id+"_repo")
}

// ClientKeyFile holds the client half of a split key during provisioning.
func (l Layout) ClientKeyFile(id string) string { return l.KeyFile(id) + ".client" }

// RestoreDir receives files extracted by restore.sh.
func (l Layout) RestoreDir(id string) string { return path.Join(l.Root, id, "restore") }

// RestoreArchive is the tarball restore.sh produces for a whole archive.
func (l Layout) RestoreArchive(id, archive string) string {
	return path.Join(l.RestoreDir(id), archive+".tar.gz")
}

// RestoredLog is where a single backup log lands after extraction.
func (l Layout) RestoredLog(id, archive string) string {
	return path.Join(l.RestoreDir(id), archive+"_"+id+".log")
}

// UploadedPublicKey is the staging path of a client SSH key.
func (l Layout) UploadedPublicKey(id string) string {
	return path.Join(l.Root, "api", id+".pub")
}

// Script returns the absolute path of a helper script.
func (l Layout) Script(name string) string { return path.Join(l.ScriptsDir, name) }
