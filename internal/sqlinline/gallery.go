package sqlinline

const QEnsureGallerySchema = `--sql 7d0c3e52-8f4b-4a61-9c2e-1b5f0a9d6e31
create table if not exists gallery_entries (
  filename   text primary key,
  prompt     text not null default '',
  entry_type text not null default '',
  created    text not null default '',
  properties jsonb not null default '{}'::jsonb,
  synced_at  timestamptz not null default now()
);
`

const QUpsertGalleryEntry = `--sql 3f6a91d4-2b7e-4c08-a5d3-6e9f1c0b4a27
insert into gallery_entries (filename, prompt, entry_type, created, properties, synced_at)
values ($1::text, $2::text, $3::text, $4::text, coalesce($5::jsonb, '{}'::jsonb), now())
on conflict (filename) do update
set prompt     = excluded.prompt,
    entry_type = excluded.entry_type,
    created    = excluded.created,
    properties = excluded.properties,
    synced_at  = now();
`

const QDeleteGalleryEntry = `--sql b81e2c6f-04d9-4f3a-8c75-d2a9e6130f58
delete from gallery_entries
where filename = $1::text;
`

const QCountGalleryEntries = `--sql 5c27f0b8-9a13-4e6d-b4f2-83d1a7c5e940
select count(*)::bigint
from gallery_entries;
`

const QPruneGalleryEntries = `--sql e4a9d713-6c2b-4f85-9e01-a7b3c5d82f16
delete from gallery_entries
where not (filename = any($1::text[]));
`
