/*
Package operation is the façade every caller of the sync engine goes through.

	+-----------+      +------------+      +---------------+
	|  Session  | ---> |  Operator  | ---> | remote.Client |
	| (caller)  |      | (guarded)  |      |   (GitHub)    |
	+-----------+      +-----+------+      +---------------+
	                         |
	          +--------------+--------------+
	          |              |              |
	     +----+----+   +-----+----+   +-----+-----+
	     | record  |   | manifest |   |   saga    |
	     | (patch) |   |  (plan)  |   | (journal) |
	     +---------+   +----------+   +-----------+

🎯 Purpose:
- Sequences client calls for one Session at a time
- Serializes every read-patch-write on a repository
- Normalizes every failure into a syncerr kind

🔄 Flow of a record save:
1. Acquire the repository lock
2. Read the module and its content hash
3. Patch the record into the text
4. Write back gated on the hash that was read
5. Refresh the mirror

⚡ Guarantees:
- Busy() is true while any call is talking to the remote
- Validation (paths, sizes, credential shape) happens before any request
- An authentication failure clears the stored credential
- Multi-file changes are journaled and can be resumed

🔍 Example:

	op, err := operation.New(operation.Options{
		Clients:     operation.GitHubClients(),
		Credentials: st,
		Journal:     st.Journal(),
	})
	sess, err := op.Login(ctx, token)
	sess, err = op.SelectRepository(ctx, sess, "octo", "site")
	_, err = op.SaveRecord(ctx, sess, "src/data/posts.js", rec, "")
*/
package operation
