// Package load reads and writes whole models as JSON, YAML or MessagePack
// files. The three encodings share one document shape:
//
//	entities:
//	  - name: User
//	    attributes:
//	      - {name: email, type: string, indexed: true}
//	    relationships:
//	      - {name: posts, destination: Post, inverse: author, deleteRule: cascade}
//	  - name: Post
//	    relationships:
//	      - {name: author, destination: User, inverse: posts, maxCount: 1}
//
// A loaded model is validated: every destination, inverse and subentity
// resolves.
package load
