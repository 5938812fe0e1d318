package store

import "strconv"

var statements = map[Stmt]string{
	InsertBlock:       `insert or replace into block (p, q, x, y, z, w) values (?, ?, ?, ?, ?, ?);`,
	InsertLight:       `insert or replace into light (p, q, x, y, z, w) values (?, ?, ?, ?, ?, ?);`,
	InsertBlockDamage: `insert or replace into block_damage (p, q, x, y, z, w) values (?, ?, ?, ?, ?, ?);`,
	TrimBlockDamage:   `delete from block_damage where w = 0 and p = ? and q = ?;`,
	SetKey:            `insert or replace into key (p, q, key) values (?, ?, ?);`,
	GetKey:            `select key from key where p = ? and q = ?;`,

	InsertSign:     `insert or replace into sign (p, q, x, y, z, face, text) values (?, ?, ?, ?, ?, ?, ?);`,
	DeleteSign:     `delete from sign where x = ? and y = ? and z = ? and face = ?;`,
	DeleteSigns:    `delete from sign where x = ? and y = ? and z = ?;`,
	DeleteAllSigns: `delete from sign;`,

	LoadBlocks:      `select x, y, z, w from block where p = ? and q = ?;`,
	LoadLights:      `select x, y, z, w from light where p = ? and q = ?;`,
	LoadBlockDamage: `select x, y, z, w from block_damage where p = ? and q = ?;`,
	LoadSigns:       `select x, y, z, face, text from sign where p = ? and q = ?;`,

	SaveStateClear: `delete from state;`,
	SaveState:      `insert into state (x, y, z, rx, ry, flying) values (?, ?, ?, ?, ?, ?);`,
	LoadState:      `select x, y, z, rx, ry, flying from state;`,

	AuthSet:         `insert or replace into auth.identity_token (username, token, selected) values (?, ?, ?);`,
	AuthSelectNone:  `update auth.identity_token set selected = 0;`,
	AuthSelect:      `update auth.identity_token set selected = 1 where username = ?;`,
	AuthGet:         `select token from auth.identity_token where username = ?;`,
	AuthGetSelected: `select username, token from auth.identity_token where selected = 1;`,

	DumpBlocks:      `select p, q, x, y, z, w from block order by p, q, x, y, z;`,
	DumpLights:      `select p, q, x, y, z, w from light order by p, q, x, y, z;`,
	DumpBlockDamage: `select p, q, x, y, z, w from block_damage order by p, q, x, y, z;`,
	DumpKeys:        `select p, q, key from key order by p, q;`,
	DumpSigns:       `select p, q, x, y, z, face, text from sign order by x, y, z, face;`,
	CountRows: `select 'block', count(*) from block
		union all select 'light', count(*) from light
		union all select 'block_damage', count(*) from block_damage
		union all select 'key', count(*) from key
		union all select 'sign', count(*) from sign;`,
}

var stmtNames = map[Stmt]string{
	InsertBlock:       "insert_block",
	InsertLight:       "insert_light",
	InsertBlockDamage: "insert_block_damage",
	TrimBlockDamage:   "trim_block_damage",
	SetKey:            "set_key",
	GetKey:            "get_key",
	InsertSign:        "insert_sign",
	DeleteSign:        "delete_sign",
	DeleteSigns:       "delete_signs",
	DeleteAllSigns:    "delete_all_signs",
	LoadBlocks:        "load_blocks",
	LoadLights:        "load_lights",
	LoadBlockDamage:   "load_block_damage",
	LoadSigns:         "load_signs",
	SaveStateClear:    "save_state_clear",
	SaveState:         "save_state",
	LoadState:         "load_state",
	AuthSet:           "auth_set",
	AuthSelectNone:    "auth_select_none",
	AuthSelect:        "auth_select",
	AuthGet:           "auth_get",
	AuthGetSelected:   "auth_get_selected",
	DumpBlocks:        "dump_blocks",
	DumpLights:        "dump_lights",
	DumpBlockDamage:   "dump_block_damage",
	DumpKeys:          "dump_keys",
	DumpSigns:         "dump_signs",
	CountRows:         "count_rows",
}

func (s Stmt) String() string {
	if n, ok := stmtNames[s]; ok {
		return n
	}
	return "stmt(" + strconv.Itoa(int(s)) + ")"
}
