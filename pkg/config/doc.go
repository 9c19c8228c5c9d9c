/*
Package config loads contentsync settings from YAML, HCL, JSON or TOML.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	   +---------+-----+-----+---------+
	   |         |           |         |
	+--+---+  +--+--+    +---+--+  +---+--+
	| YAML |  | HCL |    | JSON |  | TOML |
	+------+  +-----+    +------+  +------+

🎯 Purpose:
- Picks a parser from the file extension
- Rejects unknown keys in every format
- Fills defaults so callers never see zero values

🔄 Flow:
1. Load reads the file
2. The registered parser decodes it
3. Validate fills defaults and checks values

🌱 HCL files can read the environment through the env object:

	remote {
	  base_url = env.GITHUB_API_URL
	}

🔍 Example:

	cfg, err := config.Load(ctx, ".contentsync.yaml")
	if err != nil {
		return err
	}
	layout := cfg.Layout()
*/
package config
